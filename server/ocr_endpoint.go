package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wudi/ocrkit/pool"
)

// OCRResponse is the boundary's result shape. ProcessedImage serializes as
// base64 PNG under encoding/json's []byte rules.
type OCRResponse struct {
	ImageID        string  `json:"image_id"`
	BatchID        string  `json:"batch_id,omitempty"`
	Filename       string  `json:"filename,omitempty"`
	Text           string  `json:"text"`
	Code           string  `json:"code"`
	ProcessingMs   float64 `json:"processing_ms"`
	ProcessedImage []byte  `json:"processed_image,omitempty"`
}

// ErrorResponse is the shape of 4xx/5xx bodies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleOCR accepts one image per request: either the raw request body or the
// "image" part of a multipart form. Identifiers ride along as form/query
// values and are echoed back untouched; a missing image_id gets a fresh UUID.
// Processing failures still return 200 with sentinel text — failure is data
// at this boundary.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readImage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty image payload")
		return
	}

	batchID := r.FormValue("batch_id")
	imageID := r.FormValue("image_id")
	if imageID == "" {
		imageID = uuid.NewString()
	}
	if f := r.FormValue("filename"); f != "" {
		filename = f
	}

	job, err := s.pool.Submit(filename, data, batchID, imageID)
	if err != nil {
		if errors.Is(err, pool.ErrPoolClosed) {
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		writeError(w, http.StatusInternalServerError, "submit failed")
		return
	}

	res, err := job.Await(r.Context())
	if err != nil {
		// Client went away; the worker still completes the job.
		s.log.Debug("caller abandoned job", zap.String("image_id", imageID), zap.Error(err))
		return
	}

	writeJSON(w, http.StatusOK, OCRResponse{
		ImageID:        imageID,
		BatchID:        batchID,
		Filename:       filename,
		Text:           res.Text,
		Code:           string(res.Code),
		ProcessingMs:   float64(res.Elapsed.Microseconds()) / 1000,
		ProcessedImage: res.ProcessedImage,
	})
}

// readImage pulls the image bytes out of the request, from the multipart
// "image" part when present, otherwise from the raw body.
func (s *Server) readImage(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(s.cfg.MaxBodyBytes); err != nil {
			return nil, "", errors.New("malformed multipart form")
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", errors.New("missing \"image\" form part")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("reading image part failed")
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, "", errors.New("reading request body failed")
	}
	return data, "", nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
