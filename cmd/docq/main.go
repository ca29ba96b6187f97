// Package main implements the docq CLI for manual operations against the docqd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the docqd HTTP server
	serverURL string
	// sessionID scopes uploads, questions and clears to one conversation
	sessionID string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docq",
	Short: "CLI for docqd HTTP server operations",
	Long: `docq is a command-line interface for interacting with the docqd HTTP server.
It provides commands for uploading documents, asking questions against them
and clearing server state.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9091", "docqd server URL")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "default", "session identifier")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(healthCmd)
}

// uploadCmd uploads a document into the session's index
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document (pdf, docx or text) into the session's index",
	Long: `Upload a document to the docqd server. The document is chunked, embedded
and indexed for the session given by --session.

Examples:
  # Upload a PDF
  docq upload report.pdf

  # Upload into a specific session
  docq upload --session chat42 notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

// askCmd asks a question against the session's documents
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the session's documents",
	Long: `Ask a question. The server retrieves relevant chunks from the session's
documents, folds in recent conversation turns and answers with the model.

Examples:
  # Ask a question
  docq ask "What does section 3 say about refunds?"

  # Ask in a specific session
  docq ask --session chat42 "Summarize the document"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

// clearCmd clears server-side state
var clearCmd = &cobra.Command{
	Use:   "clear [cache|memory|index|all]",
	Short: "Clear the answer cache, the session's memory or its index",
	Long: `Clear server-side state. With no argument everything for the session is
cleared.

Examples:
  # Clear everything for the session
  docq clear

  # Clear only the answer cache
  docq clear cache`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check docqd server health",
	Long: `Check the health status of the docqd HTTP server.

Examples:
  # Check health
  docq health

  # Check health on a different server
  docq health --server http://localhost:8080`,
	RunE: runHealth,
}

// UploadResponse matches internal/httpapi UploadResponse
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// QueryRequest matches internal/httpapi QueryRequest
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// QueryResponse matches internal/httpapi QueryResponse
type QueryResponse struct {
	Answer    string   `json:"answer"`
	State     string   `json:"state"`
	FromCache bool     `json:"from_cache"`
	Sources   []string `json:"sources,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// ClearRequest matches internal/httpapi ClearRequest
type ClearRequest struct {
	SessionID string `json:"session_id"`
	Target    string `json:"target"`
}

// ClearResponse matches internal/httpapi ClearResponse
type ClearResponse struct {
	Cleared []string `json:"cleared"`
}

// HealthResponse matches internal/httpapi HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runUpload handles the upload command
func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("session_id", sessionID); err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(serverURL+"/api/v1/documents", w.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var uploadResp UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Indexed %s: %d chunk(s), document id %s\n",
		filepath.Base(path), uploadResp.Chunks, uploadResp.DocumentID)
	return nil
}

// runAsk handles the ask command
func runAsk(cmd *cobra.Command, args []string) error {
	reqJSON, err := json.Marshal(QueryRequest{
		SessionID: sessionID,
		Question:  args[0],
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	client := &http.Client{Timeout: 180 * time.Second}
	resp, err := client.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if queryResp.State == "rejected" {
		return fmt.Errorf("question rejected: %s", queryResp.Reason)
	}

	fmt.Println(queryResp.Answer)
	if queryResp.FromCache {
		fmt.Fprintln(os.Stderr, "[docq] answer served from cache")
	}
	if len(queryResp.Sources) > 0 {
		fmt.Fprintf(os.Stderr, "[docq] sources: %s\n", strings.Join(queryResp.Sources, ", "))
	}
	return nil
}

// runClear handles the clear command
func runClear(cmd *cobra.Command, args []string) error {
	target := "all"
	if len(args) == 1 {
		target = args[0]
	}

	reqJSON, err := json.Marshal(ClearRequest{
		SessionID: sessionID,
		Target:    target,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(serverURL+"/api/v1/admin/clear", "application/json", bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var clearResp ClearResponse
	if err := json.NewDecoder(resp.Body).Decode(&clearResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Cleared: %s\n", strings.Join(clearResp.Cleared, ", "))
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	return nil
}

// checkStatus returns an error for non-200 responses, including the body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}
