// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

func init() {
	llamaPollInterval = 1 * time.Millisecond
}

// llamaServer fakes the LlamaParse API: upload returns a job id, the job
// settles after pendingPolls status checks, results are canned.
type llamaServer struct {
	t            *testing.T
	pendingPolls int32
	jobStatus    string // terminal status, default SUCCESS
	gotAuth      string
	gotLanguage  string
}

func (s *llamaServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.gotAuth = r.Header.Get("Authorization")
		require.NoError(s.t, r.ParseMultipartForm(1<<20))
		s.gotLanguage = r.FormValue("language")
		_, _, err := r.FormFile("file")
		require.NoError(s.t, err)
		w.Write([]byte(`{"id":"job-42"}`))
	})

	mux.HandleFunc("/job/job-42", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if atomic.AddInt32(&s.pendingPolls, -1) >= 0 {
			w.Write([]byte(`{"status":"PENDING"}`))
			return
		}
		status := s.jobStatus
		if status == "" {
			status = "SUCCESS"
		}
		w.Write([]byte(`{"status":"` + status + `","error_message":"ran out of credits"}`))
	})

	mux.HandleFunc("/job/job-42/result/markdown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"markdown":"# Parsed","job_metadata":{"job_pages":5}}`))
	})

	mux.HandleFunc("/job/job-42/result/text", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"text":"Parsed body"}`))
	})

	return mux
}

func withLlamaServer(t *testing.T, s *llamaServer) {
	t.Helper()
	s.t = t
	ts := httptest.NewServer(s.handler())
	orig := llamaBaseURL
	llamaBaseURL = ts.URL
	t.Cleanup(func() {
		llamaBaseURL = orig
		ts.Close()
	})
}

func tempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestLlamaParseConverter_Convert(t *testing.T) {
	srv := &llamaServer{pendingPolls: 2}
	withLlamaServer(t, srv)

	conv := NewLlamaParseConverter(types.ConverterConfig{
		Backend:  types.BackendLlamaParse,
		APIKey:   "llx-test",
		Language: "de",
		DualText: true,
	})

	doc, err := conv.Convert(tempPDF(t))
	require.NoError(t, err)

	assert.Equal(t, "# Parsed", doc.Markdown)
	assert.Equal(t, "Parsed body", doc.PlainText)
	assert.Equal(t, 5, doc.PageCount)
	assert.Equal(t, "Bearer llx-test", srv.gotAuth)
	assert.Equal(t, "de", srv.gotLanguage)
}

func TestLlamaParseConverter_MarkdownOnlySkipsTextFetch(t *testing.T) {
	srv := &llamaServer{}
	withLlamaServer(t, srv)

	conv := NewLlamaParseConverter(types.ConverterConfig{APIKey: "llx-test"})

	doc, err := conv.Convert(tempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, "# Parsed", doc.Markdown)
	assert.Empty(t, doc.PlainText)
}

func TestLlamaParseConverter_JobFailure(t *testing.T) {
	srv := &llamaServer{jobStatus: "ERROR"}
	withLlamaServer(t, srv)

	conv := NewLlamaParseConverter(types.ConverterConfig{APIKey: "llx-test"})

	_, err := conv.Convert(tempPDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ran out of credits")
}

func TestLlamaParseConverter_UploadRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	orig := llamaBaseURL
	llamaBaseURL = ts.URL
	t.Cleanup(func() {
		llamaBaseURL = orig
		ts.Close()
	})

	conv := NewLlamaParseConverter(types.ConverterConfig{APIKey: "llx-bad"})

	_, err := conv.Convert(tempPDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
