package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coursedash/coursedash/internal/pipeline"
	"github.com/coursedash/coursedash/internal/reconcile"
	"github.com/coursedash/coursedash/internal/version"
)

func testServer() *Server {
	opts := pipeline.Options{
		Reconcile: reconcile.Options{LegacyFallbackYear: 2024, ModernFallbackYear: 2026, InProgressYear: 2026},
	}
	return New(DefaultConfig(), opts)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for part, content := range files {
		fw, err := mw.CreateFormFile(part, part+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func validFiles() map[string]string {
	return map[string]string{
		"legacy":    "Course Name,Time spent,Reporting\nFire Safety 101,2:30,2023-05-01\n",
		"modern":    "Course Name,Total Time,Reporting\nLadder Basics,4,2025-02-01\n",
		"timespent": "Course Name,Category,Hours\nFire Safety 101,LP Development,3\n",
	}
}

func upload(t *testing.T, s *Server, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleUpload(t *testing.T) {
	s := testServer()
	w := upload(t, s, validFiles())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Unified != 2 {
		t.Errorf("unified = %d, want 2", resp.Unified)
	}
	if s.Result() == nil {
		t.Error("successful upload must install the result")
	}
}

func TestHandleUploadMissingPart(t *testing.T) {
	s := testServer()
	files := validFiles()
	delete(files, "modern")

	w := upload(t, s, files)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if s.Result() != nil {
		t.Error("failed upload must not install a result")
	}
}

func TestHandleUploadCriticalDiagnostics(t *testing.T) {
	s := testServer()
	files := validFiles()
	files["legacy"] = "Course Name,Time spent\n,3\n"

	w := upload(t, s, files)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (%s)", w.Code, w.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Details) == 0 {
		t.Error("rejection must carry the diagnostics")
	}
	if s.Result() != nil {
		t.Error("gated upload must not install a result")
	}
}

func TestHandleUploadPreservesPriorResult(t *testing.T) {
	s := testServer()
	if w := upload(t, s, validFiles()); w.Code != http.StatusOK {
		t.Fatalf("first upload failed: %d", w.Code)
	}
	before := s.Result()

	files := validFiles()
	files["legacy"] = "Course Name,Time spent\n,3\n"
	if w := upload(t, s, files); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 on bad upload")
	}

	if s.Result() != before {
		t.Error("failed upload must leave the prior dataset untouched")
	}
}

func TestHandleGetBeforeUpload(t *testing.T) {
	s := testServer()
	for _, path := range []string{"/api/v1/unified", "/api/v1/analytics", "/api/v1/errors", "/api/v1/summary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if w.Code != http.StatusConflict {
			t.Errorf("GET %s = %d, want 409", path, w.Code)
		}
	}
}

func TestHandleGetViews(t *testing.T) {
	s := testServer()
	if w := upload(t, s, validFiles()); w.Code != http.StatusOK {
		t.Fatalf("upload failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unified", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET unified = %d", w.Code)
	}
	var unified UnifiedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &unified); err != nil {
		t.Fatalf("decode unified: %v", err)
	}
	if len(unified.Unified) != 2 {
		t.Errorf("unified count = %d", len(unified.Unified))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "totalCourses") {
		t.Errorf("GET summary = %d body %s", w.Code, w.Body.String())
	}
}

func TestHandleGetVersion(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/version", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET version = %d", w.Code)
	}

	var info version.Info
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Name != "coursedash" || info.Version == "" {
		t.Errorf("version info = %+v", info)
	}
}

func TestHealthz(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
}

func TestStaticShellServed(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Course Development") {
		t.Errorf("static shell not served: %d", w.Code)
	}
}
