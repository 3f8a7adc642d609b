package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docpass/internal/config"
	"github.com/dgallion1/docpass/internal/describe"
	"github.com/dgallion1/docpass/internal/imagehost"
	"github.com/dgallion1/docpass/internal/pipeline"
	"github.com/google/go-cmp/cmp"
)

const testKey = "test-key"

func testConfig() config.Config {
	return config.Config{
		DocpassAPIKey:  testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
}

func newTestServer(t *testing.T, images *imagehost.Client) *Server {
	t.Helper()
	return newTestServerWith(t, testConfig(), images)
}

func newTestServerWith(t *testing.T, cfg config.Config, images *imagehost.Client) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, nil, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, images, log, cfg)
}

// multipartRequest builds an authenticated upload request.
func multipartRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func do(s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var out map[string]any
	json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec, out := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("expected 200 ok, got %d %v", rec.Code, out)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong", "Bearer nope"},
		{"scheme", "Basic " + testKey},
	}
	for _, tt := range tests {
		req := multipartRequest(t, "/api/images", "a.md", "x", nil)
		req.Header.Set("Authorization", tt.header)
		if rec, _ := do(s, req); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", tt.name, rec.Code)
		}
	}
}

func TestDescribe(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "/api/describe", "doc.md", "Some [External Link](url) text", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Title       string          `json:"title"`
		Description []describe.Line `json:"description"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []describe.Line{{
		{Kind: describe.KindNormal, Value: "Some "},
		{Kind: describe.KindLink, Value: "External Link"},
		{Kind: describe.KindNormal, Value: " text"},
	}}
	if diff := cmp.Diff(want, out.Description); diff != "" {
		t.Errorf("description mismatch (-want +got):\n%s", diff)
	}
	if out.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", out.Title)
	}
}

func TestDescribe_HonorsMarkdownExtensions(t *testing.T) {
	const table = "| a | b |\n|---|---|\n| 1 | 2 |\n"

	describeFirst := func(s *Server) string {
		t.Helper()
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, multipartRequest(t, "/api/describe", "t.md", table, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var out struct {
			Description []describe.Line `json:"description"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out.Description) == 0 || len(out.Description[0]) == 0 {
			return ""
		}
		return out.Description[0][0].Value
	}

	// Tables are left out of descriptions, so the default parse yields no text.
	if got := describeFirst(newTestServer(t, nil)); got != "" {
		t.Errorf("expected table to be parsed as a table, got text %q", got)
	}

	cfg := testConfig()
	cfg.MarkdownExtensions = []string{"strikethrough"}
	if got := describeFirst(newTestServerWith(t, cfg, nil)); !strings.Contains(got, "| a | b |") {
		t.Errorf("expected table source as plain text with the table extension off, got %q", got)
	}
}

func TestImages(t *testing.T) {
	s := newTestServer(t, nil)
	rec, out := do(s, multipartRequest(t, "/api/images", "doc.md", "![](b.png) ![](a.png) ![](b.png)", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := []any{"a.png", "b.png"}
	if diff := cmp.Diff(want, out["images"]); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestRewrite(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/rewrite", "doc.md", "![](a.png) ![](b.png)", map[string]string{
		"mapping": `{"a.png":"https://cdn/a.png"}`,
	})
	rec, out := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if out["replaced"] != float64(1) {
		t.Errorf("expected 1 replacement, got %v", out["replaced"])
	}
	if out["markdown"] != "![](https://cdn/a.png) ![](b.png)\n" {
		t.Errorf("unexpected markdown %q", out["markdown"])
	}
}

func TestRewrite_ResolveWithoutHost(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/rewrite", "doc.md", "![](a.png)", map[string]string{"resolve": "true"})
	if rec, _ := do(s, req); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"no file", multipartRequest(t, "/api/images", "", "", nil), http.StatusBadRequest},
		{"unsupported", multipartRequest(t, "/api/images", "a.png", "x", nil), http.StatusBadRequest},
		{"bad mapping", multipartRequest(t, "/api/rewrite", "a.md", "x", map[string]string{"mapping": "[1]"}), http.StatusBadRequest},
		{"too large", multipartRequest(t, "/api/images", "a.txt", string(make([]byte, 2<<20)), nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec, _ := do(s, tt.req); rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.code, rec.Code)
		}
	}
}

func TestConvertLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/convert", "doc.md", "# T\n\n![](a.png)", map[string]string{
		"mapping": `{"a.png":"https://cdn/a.png"}`,
	})
	rec, out := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	jobID, _ := out["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected job_id in response")
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/convert/"+jobID, nil)
		req.Header.Set("Authorization", "Bearer "+testKey)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Result == nil || snap.Result.Markdown != "# T\n\n![](https://cdn/a.png)\n" {
		t.Errorf("unexpected result %+v", snap.Result)
	}
}

func TestConvertStatusNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/convert/missing", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if rec, _ := do(s, req); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUploadStats(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/stats/uploads", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)

	if rec, _ := do(newTestServer(t, nil), req); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without image host, got %d", rec.Code)
	}

	host := imagehost.NewClient("http://127.0.0.1:0", "k", imagehost.Options{}, nil)
	rec, out := do(newTestServer(t, host), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out["bytes_human"] != "0 B" {
		t.Errorf("expected bytes_human %q, got %v", "0 B", out["bytes_human"])
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd.md": "passwd.md",
		"dir/notes.txt":       "notes.txt",
		"a..b.md":             "a_b.md",
		"":                    "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
