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

	"github.com/dgallion1/vsdgest/internal/config"
	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/pipeline"
	"github.com/dgallion1/vsdgest/internal/storage"
	"github.com/dgallion1/vsdgest/internal/storage/storagetest"
	"github.com/dgallion1/vsdgest/internal/vsd/vsdtest"
	"github.com/klauspost/compress/gzip"
)

const testKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		MaxDepth:       64,
		JobTTL:         time.Hour,
		CacheSize:      8,
		StatsWindow:    time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch, err := pipeline.NewOrchestrator(cfg, nil, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func upload(t *testing.T, field string, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fw.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func sampleFile() []byte {
	return storagetest.Compound(storage.DocumentStream, vsdtest.SampleDrawing())
}

// waitDone polls the status endpoint until the job leaves the queue.
func waitDone(t *testing.T, s *Server, jobID string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/decode/"+jobID+"/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body)
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		switch snap.Status {
		case pipeline.StatusCompleted, pipeline.StatusFailed, pipeline.StatusPartial:
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return pipeline.JobSnapshot{}
}

func submit(t *testing.T, s *Server, filename string, data []byte, title string) string {
	t.Helper()
	body, ctype := upload(t, "file", map[string][]byte{filename: data}, map[string]string{"title": title})
	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", ctype)
	rec := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, _ := resp["job_id"].(string)
	if id == "" {
		t.Fatalf("expected job_id in %v", resp)
	}
	return id
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	for _, header := range []string{"", "Bearer wrong", "Basic " + testKey} {
		req := httptest.NewRequest(http.MethodGet, "/api/stats/decode", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected status 401, got %d", header, rec.Code)
		}
	}
}

func TestDecode_TreeAndOutline(t *testing.T) {
	s := newTestServer(t)
	id := submit(t, s, "floor.vsd", sampleFile(), "Floor Plan")

	snap := waitDone(t, s, id)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/decode/"+id+"/tree", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body)
	}
	var tree doctree.DocTree
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Floor Plan" || len(tree.Pages) != 1 || tree.Root == nil {
		t.Errorf("unexpected tree: title %q, %d pages", tree.Title, len(tree.Pages))
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/decode/"+id+"/outline?format=md&depth=-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	md := rec.Body.String()
	if !strings.HasPrefix(md, "# Floor Plan\n") || strings.Contains(md, "## Chunks") {
		t.Errorf("unexpected markdown outline:\n%s", md)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/decode/"+id+"/outline", nil))
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<title>Floor Plan</title>") {
		t.Errorf("expected page title, got:\n%s", rec.Body)
	}
}

func TestDecode_TreeGzip(t *testing.T) {
	s := newTestServer(t)
	id := submit(t, s, "floor.vsd", sampleFile(), "")
	waitDone(t, s, id)

	req := httptest.NewRequest(http.MethodGet, "/api/decode/"+id+"/tree", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := do(s, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got headers %v", rec.Header())
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var tree doctree.DocTree
	if err := json.NewDecoder(zr).Decode(&tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "floor" {
		t.Errorf("expected title %q, got %q", "floor", tree.Title)
	}
}

func TestDecode_FailedJob(t *testing.T) {
	s := newTestServer(t)
	id := submit(t, s, "broken.vsd", []byte("not a compound file"), "")
	if snap := waitDone(t, s, id); snap.Status != pipeline.StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/decode/"+id+"/tree", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
}

func TestDecode_Rejects(t *testing.T) {
	s := newTestServer(t)

	body, ctype := upload(t, "file", map[string][]byte{"notes.txt": []byte("hi")}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", ctype)
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: expected status 400, got %d", rec.Code)
	}

	body, ctype = upload(t, "other", map[string][]byte{"floor.vsd": sampleFile()}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/decode", body)
	req.Header.Set("Content-Type", ctype)
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: expected status 400, got %d", rec.Code)
	}

	for _, path := range []string{"/api/decode/nope/status", "/api/decode/nope/tree", "/api/decode/nope/outline"} {
		if rec := do(s, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, rec.Code)
		}
	}
}

func TestBatchDecode(t *testing.T) {
	s := newTestServer(t)
	body, ctype := upload(t, "files", map[string][]byte{
		"floor.vsd":  sampleFile(),
		"readme.md":  []byte("# hi"),
		"shapes.vss": sampleFile(),
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/decode/batch", body)
	req.Header.Set("Content-Type", ctype)
	rec := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Jobs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Jobs))
	}
	var ids []string
	for _, j := range resp.Jobs {
		if j["filename"] == "readme.md" {
			if j["error"] == nil {
				t.Error("expected error for unsupported file")
			}
			continue
		}
		id, _ := j["job_id"].(string)
		ids = append(ids, id)
	}
	for _, id := range ids {
		if snap := waitDone(t, s, id); snap.Status != pipeline.StatusCompleted {
			t.Errorf("job %s: expected completed, got %q", id, snap.Status)
		}
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/stats/decode", nil))
	var stats struct {
		CachedResults int                    `json:"cached_results"`
		Stats         pipeline.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same bytes, different extensions: both decoded.
	if stats.CachedResults != 2 || stats.Stats.Count != 2 {
		t.Errorf("expected 2 decodes and 2 cached results, got %+v", stats)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"floor.vsd":          "floor.vsd",
		"../../etc/plan.vsd": "plan.vsd",
		`C:\drawings\a.vsd`:  "a.vsd",
		"a..b.vsd":           "a_b.vsd",
		"":                   "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}
}
