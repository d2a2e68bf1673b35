// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/httputil"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// llamaBaseURL is the LlamaParse API root. Tests point it at a local server.
var llamaBaseURL = "https://api.cloud.llamaindex.ai/api/v1/parsing"

// llamaPollInterval controls how often job status is polled. Tests override
// this to avoid real sleeps.
var llamaPollInterval = 2 * time.Second

const defaultJobTimeout = 10 * time.Minute

// LlamaParseConverter converts PDFs through the LlamaParse cloud API:
// upload, poll until the parse job settles, then fetch the markdown and
// plain-text results.
type LlamaParseConverter struct {
	cfg    types.ConverterConfig
	client *http.Client
}

// NewLlamaParseConverter creates a converter for the LlamaParse API using
// the credentials and HTTP settings in cfg.
func NewLlamaParseConverter(cfg types.ConverterConfig) *LlamaParseConverter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LlamaParseConverter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Convert uploads the PDF, waits for the parse job, and assembles a
// Document from the job results.
func (l *LlamaParseConverter) Convert(pdfPath string) (*Document, error) {
	ctx := context.Background()

	jobID, err := l.upload(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	if err := l.waitForJob(ctx, jobID); err != nil {
		return nil, fmt.Errorf("parse job for %s: %w", pdfPath, err)
	}

	md, pages, err := l.fetchResult(ctx, jobID, "markdown")
	if err != nil {
		return nil, fmt.Errorf("fetching markdown for %s: %w", pdfPath, err)
	}

	doc := &Document{Markdown: md, PageCount: pages}

	if l.cfg.DualText || l.cfg.Mode == types.ResultText {
		text, _, err := l.fetchResult(ctx, jobID, "text")
		if err != nil {
			return nil, fmt.Errorf("fetching text for %s: %w", pdfPath, err)
		}
		doc.PlainText = text
	}

	return doc, nil
}

func (l *LlamaParseConverter) upload(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	lang := l.cfg.Language
	if lang == "" {
		lang = "en"
	}
	_ = mw.WriteField("language", lang)
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, llamaBaseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		ID string `json:"id"`
	}
	if err := l.doJSON(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("uploading %s: %w", pdfPath, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("uploading %s: API returned no job id", pdfPath)
	}
	return resp.ID, nil
}

func (l *LlamaParseConverter) waitForJob(ctx context.Context, jobID string) error {
	deadline := time.Now().Add(defaultJobTimeout)

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, llamaBaseURL+"/job/"+jobID, nil)
		if err != nil {
			return err
		}

		var status struct {
			Status string `json:"status"`
			Error  string `json:"error_message"`
		}
		if err := l.doJSON(ctx, req, &status); err != nil {
			return err
		}

		switch status.Status {
		case "SUCCESS":
			return nil
		case "ERROR", "CANCELLED":
			return fmt.Errorf("job %s failed: %s", jobID, status.Error)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("job %s did not finish within %v", jobID, defaultJobTimeout)
		}
		time.Sleep(llamaPollInterval)
	}
}

func (l *LlamaParseConverter) fetchResult(ctx context.Context, jobID, kind string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, llamaBaseURL+"/job/"+jobID+"/result/"+kind, nil)
	if err != nil {
		return "", 0, err
	}

	var resp struct {
		Markdown string `json:"markdown"`
		Text     string `json:"text"`
		Metadata struct {
			JobPages int `json:"job_pages"`
		} `json:"job_metadata"`
	}
	if err := l.doJSON(ctx, req, &resp); err != nil {
		return "", 0, err
	}

	if kind == "text" {
		return resp.Text, resp.Metadata.JobPages, nil
	}
	return resp.Markdown, resp.Metadata.JobPages, nil
}

// doJSON executes the request with auth headers and 429 retry, decoding the
// JSON response into out.
func (l *LlamaParseConverter) doJSON(ctx context.Context, req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, l.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding API response: %w", err)
	}
	return nil
}
