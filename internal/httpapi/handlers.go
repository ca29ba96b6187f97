package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/extract"
)

// maxUploadBytes caps document uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// UploadResponse is the response body for POST /api/v1/documents.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// QueryResponse is the response body for POST /api/v1/query.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	State     string   `json:"state"`
	FromCache bool     `json:"from_cache"`
	Sources   []string `json:"sources,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// UploadRequest is the JSON request body for POST /api/v1/documents, an
// alternative to multipart form upload.
type UploadRequest struct {
	SessionID   string `json:"session_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	// Data is the base64-encoded document content.
	Data string `json:"data"`
}

// ClearRequest is the request body for POST /api/v1/admin/clear.
type ClearRequest struct {
	SessionID string `json:"session_id"`
	// Target is one of cache, memory, index or all.
	Target string `json:"target"`
}

// ClearResponse is the response body for POST /api/v1/admin/clear.
type ClearResponse struct {
	Cleared []string `json:"cleared"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload ingests a document into the session's index. Accepts a
// multipart form (file + session_id fields) or a JSON body with base64 data.
func (s *Server) handleUpload(c echo.Context) error {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return s.handleUploadJSON(c)
	}

	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer file.Close()

	blob, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	if len(blob) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document too large")
	}

	contentType := c.FormValue("content_type")
	if contentType == "" {
		contentType = fileHeader.Header.Get("Content-Type")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromName(fileHeader.Filename)
	}

	return s.ingest(c, sessionID, fileHeader.Filename, blob, contentType)
}

// handleUploadJSON ingests a base64-encoded document.
func (s *Server) handleUploadJSON(c echo.Context) error {
	var req UploadRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid upload request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}
	if req.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filename field is required")
	}
	if req.Data == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "data field is required")
	}

	blob, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data field is not valid base64")
	}
	if len(blob) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document too large")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = contentTypeFromName(req.Filename)
	}

	return s.ingest(c, req.SessionID, req.Filename, blob, contentType)
}

// ingest runs the pipeline ingest and maps its errors to HTTP statuses.
func (s *Server) ingest(c echo.Context, sessionID, filename string, blob []byte, contentType string) error {
	res, err := s.pipeline.Ingest(c.Request().Context(), sessionID, filename, blob, contentType)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		}
		if errors.Is(err, extract.ErrNoText) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		s.logger.Error("document ingest failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingest failed")
	}

	return c.JSON(http.StatusOK, UploadResponse{
		DocumentID: res.DocumentID,
		Chunks:     res.Chunks,
	})
}

// handleQuery answers a question against the session's documents.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question field is required")
	}

	answer, err := s.pipeline.Ask(c.Request().Context(), req.SessionID, req.Question)
	if err != nil {
		s.logger.Error("query failed", zap.String("session_id", req.SessionID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "query failed")
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Answer:    answer.Text,
		State:     string(answer.State),
		FromCache: answer.FromCache,
		Sources:   answer.Sources,
		Reason:    answer.Reason,
	})
}

// handleClear clears the cache, a session's memory or a session's index.
func (s *Server) handleClear(c echo.Context) error {
	var req ClearRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid clear request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	target := strings.ToLower(req.Target)
	if target == "" {
		target = "all"
	}
	if target != "cache" && req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}

	var cleared []string
	switch target {
	case "cache":
		s.pipeline.ClearCache()
		cleared = []string{"cache"}
	case "memory":
		s.pipeline.ClearMemory(req.SessionID)
		cleared = []string{"memory"}
	case "index":
		if err := s.pipeline.ClearIndex(c.Request().Context(), req.SessionID); err != nil {
			s.logger.Error("index clear failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "index clear failed")
		}
		cleared = []string{"index"}
	case "all":
		s.pipeline.ClearCache()
		s.pipeline.ClearMemory(req.SessionID)
		if err := s.pipeline.ClearIndex(c.Request().Context(), req.SessionID); err != nil {
			s.logger.Error("index clear failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "index clear failed")
		}
		cleared = []string{"cache", "memory", "index"}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "target must be cache, memory, index or all")
	}

	return c.JSON(http.StatusOK, ClearResponse{Cleared: cleared})
}

// contentTypeFromName maps a filename extension to a supported content type.
func contentTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extract.TypePDF
	case ".docx":
		return extract.TypeDocx
	default:
		return extract.TypeText
	}
}
