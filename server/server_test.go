package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wudi/ocrkit/extract"
	"github.com/wudi/ocrkit/pool"
)

// reflectProcessor echoes the payload back as text so tests can check
// request/result correlation without a recognition engine.
type reflectProcessor struct{}

func (reflectProcessor) Process(ctx context.Context, data []byte) pool.Result {
	return pool.Result{
		Text:           string(data),
		Code:           extract.CodeOK,
		Elapsed:        3 * time.Millisecond,
		ProcessedImage: []byte{0x89, 'P', 'N', 'G'},
	}
}

func newTestServer(t *testing.T) (*Server, *pool.Pool) {
	t.Helper()
	p := pool.New(reflectProcessor{}, pool.Config{Workers: 2, Logger: zap.NewNop()})
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return New(p, Config{Logger: zap.NewNop()}), p
}

func TestOCRRawBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ocr?batch_id=b7&image_id=42&filename=scan.png",
		bytes.NewReader([]byte("IMAGEBYTES")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp OCRResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Text != "IMAGEBYTES" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.ImageID != "42" || resp.BatchID != "b7" || resp.Filename != "scan.png" {
		t.Errorf("identifiers not echoed: %+v", resp)
	}
	if resp.Code != string(extract.CodeOK) {
		t.Errorf("code = %q", resp.Code)
	}
	if resp.ProcessingMs <= 0 {
		t.Errorf("processing_ms = %f", resp.ProcessingMs)
	}
	if len(resp.ProcessedImage) == 0 {
		t.Error("processed_image empty")
	}
}

func TestOCRMultipartForm(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("JPEGDATA"))
	mw.WriteField("batch_id", "batch-1")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/ocr", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp OCRResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Text != "JPEGDATA" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Filename != "photo.jpg" {
		t.Errorf("filename = %q, want multipart filename", resp.Filename)
	}
	if resp.BatchID != "batch-1" {
		t.Errorf("batch_id = %q", resp.BatchID)
	}
	if resp.ImageID == "" {
		t.Error("image_id not generated")
	}
}

func TestOCREmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ocr", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOCRAfterPoolShutdown(t *testing.T) {
	srv, p := newTestServer(t)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/ocr", bytes.NewReader([]byte("X")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
