package httpapi_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/extract"
	"github.com/fyrsmithlabs/docqd/internal/httpapi"
	"github.com/fyrsmithlabs/docqd/internal/metrics"
	"github.com/fyrsmithlabs/docqd/internal/pipeline"
)

type fakePipeline struct {
	ingestRes   pipeline.IngestResult
	ingestErr   error
	askRes      pipeline.Answer
	askErr      error
	clearIdxErr error

	lastSession     string
	lastQuestion    string
	lastFilename    string
	lastContentType string
	clearedCache    int
	clearedMemory   []string
	clearedIndex    []string
}

func (f *fakePipeline) Ingest(_ context.Context, sessionID, filename string, _ []byte, contentType string) (pipeline.IngestResult, error) {
	f.lastSession = sessionID
	f.lastFilename = filename
	f.lastContentType = contentType
	return f.ingestRes, f.ingestErr
}

func (f *fakePipeline) Ask(_ context.Context, sessionID, question string) (pipeline.Answer, error) {
	f.lastSession = sessionID
	f.lastQuestion = question
	return f.askRes, f.askErr
}

func (f *fakePipeline) ClearCache() { f.clearedCache++ }

func (f *fakePipeline) ClearMemory(sessionID string) {
	f.clearedMemory = append(f.clearedMemory, sessionID)
}

func (f *fakePipeline) ClearIndex(_ context.Context, sessionID string) error {
	f.clearedIndex = append(f.clearedIndex, sessionID)
	return f.clearIdxErr
}

func newTestServer(t *testing.T, p *fakePipeline) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	srv, err := httpapi.NewServer(p, reg, zap.NewNop(), config.ServerConfig{Host: "localhost", Port: 0})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[httpapi.HealthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "docqd_queries_total")
}

func uploadDocument(t *testing.T, url, sessionID, filename, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("session_id", sessionID))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(url+"/api/v1/documents", w.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUpload(t *testing.T) {
	p := &fakePipeline{ingestRes: pipeline.IngestResult{DocumentID: "doc_abc", Chunks: 3}}
	ts := newTestServer(t, p)

	resp := uploadDocument(t, ts.URL, "chat1", "notes.txt", "some text")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[httpapi.UploadResponse](t, resp)
	assert.Equal(t, "doc_abc", body.DocumentID)
	assert.Equal(t, 3, body.Chunks)
	assert.Equal(t, "chat1", p.lastSession)
	assert.Equal(t, "notes.txt", p.lastFilename)
}

func TestUploadInfersContentTypeFromExtension(t *testing.T) {
	p := &fakePipeline{}
	ts := newTestServer(t, p)

	uploadDocument(t, ts.URL, "chat1", "report.pdf", "%PDF-1.4")
	assert.Equal(t, extract.TypePDF, p.lastContentType)

	uploadDocument(t, ts.URL, "chat1", "report.docx", "PK")
	assert.Equal(t, extract.TypeDocx, p.lastContentType)
}

func TestUploadMissingFields(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("session_id", "chat1"))
	require.NoError(t, w.Close())

	resp, err := http.Post(ts.URL+"/api/v1/documents", w.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadUnsupportedType(t *testing.T) {
	p := &fakePipeline{ingestErr: extract.ErrUnsupportedType}
	ts := newTestServer(t, p)

	resp := uploadDocument(t, ts.URL, "chat1", "img.png", "binary")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUploadJSON(t *testing.T) {
	p := &fakePipeline{ingestRes: pipeline.IngestResult{DocumentID: "doc_json", Chunks: 2}}
	ts := newTestServer(t, p)

	resp := postJSON(t, ts.URL+"/api/v1/documents", httpapi.UploadRequest{
		SessionID: "chat1",
		Filename:  "notes.txt",
		Data:      base64.StdEncoding.EncodeToString([]byte("some text")),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[httpapi.UploadResponse](t, resp)
	assert.Equal(t, "doc_json", body.DocumentID)
	assert.Equal(t, extract.TypeText, p.lastContentType)
}

func TestUploadJSONBadBase64(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	resp := postJSON(t, ts.URL+"/api/v1/documents", httpapi.UploadRequest{
		SessionID: "chat1",
		Filename:  "notes.txt",
		Data:      "not base64!!!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuery(t *testing.T) {
	p := &fakePipeline{askRes: pipeline.Answer{
		Text:    "42",
		State:   pipeline.StateDone,
		Sources: []string{"doc_a_0"},
	}}
	ts := newTestServer(t, p)

	resp := postJSON(t, ts.URL+"/api/v1/query", httpapi.QueryRequest{
		SessionID: "chat1",
		Question:  "what is the answer?",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[httpapi.QueryResponse](t, resp)
	assert.Equal(t, "42", body.Answer)
	assert.Equal(t, "done", body.State)
	assert.Equal(t, []string{"doc_a_0"}, body.Sources)
	assert.Equal(t, "what is the answer?", p.lastQuestion)
}

func TestQueryRejected(t *testing.T) {
	p := &fakePipeline{askRes: pipeline.Answer{
		State:  pipeline.StateRejected,
		Reason: `contains denied term "x"`,
	}}
	ts := newTestServer(t, p)

	resp := postJSON(t, ts.URL+"/api/v1/query", httpapi.QueryRequest{
		SessionID: "chat1",
		Question:  "x",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[httpapi.QueryResponse](t, resp)
	assert.Equal(t, "rejected", body.State)
	assert.NotEmpty(t, body.Reason)
	assert.Empty(t, body.Answer)
}

func TestQueryFailure(t *testing.T) {
	p := &fakePipeline{askErr: errors.New("model down")}
	ts := newTestServer(t, p)

	resp := postJSON(t, ts.URL+"/api/v1/query", httpapi.QueryRequest{
		SessionID: "chat1",
		Question:  "q",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestQueryValidation(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	resp := postJSON(t, ts.URL+"/api/v1/query", httpapi.QueryRequest{Question: "q"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/query", httpapi.QueryRequest{SessionID: "chat1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClearTargets(t *testing.T) {
	p := &fakePipeline{}
	ts := newTestServer(t, p)

	resp := postJSON(t, ts.URL+"/api/v1/admin/clear", httpapi.ClearRequest{Target: "cache"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"cache"}, decode[httpapi.ClearResponse](t, resp).Cleared)

	resp = postJSON(t, ts.URL+"/api/v1/admin/clear", httpapi.ClearRequest{
		SessionID: "chat1", Target: "all",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"cache", "memory", "index"},
		decode[httpapi.ClearResponse](t, resp).Cleared)

	assert.Equal(t, 2, p.clearedCache)
	assert.Equal(t, []string{"chat1"}, p.clearedMemory)
	assert.Equal(t, []string{"chat1"}, p.clearedIndex)
}

func TestClearValidation(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	// memory and index need a session.
	resp := postJSON(t, ts.URL+"/api/v1/admin/clear", httpapi.ClearRequest{Target: "memory"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/admin/clear", httpapi.ClearRequest{
		SessionID: "chat1", Target: "everything",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.True(t, strings.Contains(e.Message, "target"))
}
