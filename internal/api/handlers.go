package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
	"github.com/FocuswithJustin/rtjson/core/sqlite"
	"github.com/FocuswithJustin/rtjson/internal/ingest"
	"github.com/FocuswithJustin/rtjson/internal/library"
	"github.com/FocuswithJustin/rtjson/internal/logging"
	"github.com/FocuswithJustin/rtjson/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Documents int    `json:"documents"`
	Driver    string `json:"sqlite_driver"`
	Clients   int    `json:"websocket_clients"`
}

// ConvertResult is the body of a successful conversion.
type ConvertResult struct {
	Format   string           `json:"format"`
	Document *rtjson.Document `json:"document"`
}

// DocumentResult pairs a library record with its document.
type DocumentResult struct {
	Record   library.Record   `json:"record"`
	Document *rtjson.Document `json:"document"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "rtjson API",
		"version": s.version,
		"formats": ingest.Formats,
		"endpoints": []string{
			"GET /health",
			"POST /convert",
			"GET /documents",
			"POST /documents",
			"GET /documents/:id",
			"DELETE /documents/:id",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	records, err := s.lib.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:    "healthy",
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Documents: len(records),
		Driver:    sqlite.DriverType(),
		Clients:   s.hub.ClientCount(),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	doc, format, err := s.convertRequest(w, r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, ConvertResult{Format: string(format), Document: doc})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDocumentsHandler(w, r)
	case http.MethodPost:
		s.storeDocumentHandler(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

func (s *Server) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.lib.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    records,
		Meta: &APIMeta{
			Total:     len(records),
			Timestamp: timestamp(),
		},
	})
}

func (s *Server) storeDocumentHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := validateName(name); err != nil {
		s.respondErr(w, r, err)
		return
	}

	doc, format, err := s.convertRequest(w, r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	rec, err := s.store(r.Context(), name, format, doc)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, DocumentResult{Record: rec, Document: doc})
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/documents/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Document ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, doc, err := s.lib.Get(r.Context(), id)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		respond(w, http.StatusOK, DocumentResult{Record: rec, Document: doc})
	case http.MethodDelete:
		if err := s.lib.Delete(r.Context(), id); err != nil {
			s.respondErr(w, r, err)
			return
		}
		respond(w, http.StatusOK, map[string]string{"message": "Document deleted"})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

// convertRequest reads, identifies and encodes the request body.
func (s *Server) convertRequest(w http.ResponseWriter, r *http.Request) (*rtjson.Document, ingest.Format, error) {
	data, err := readSource(w, r, s.enc.MaxInputBytes)
	if err != nil {
		return nil, "", err
	}
	if err := validation.ValidateSource(data); err != nil {
		return nil, "", err
	}
	format, err := requestFormat(r, data)
	if err != nil {
		return nil, "", err
	}
	opts, err := requestOptions(r, s.enc.Options())
	if err != nil {
		return nil, format, err
	}
	doc, err := s.convert(r.Context(), format, data, opts)
	return doc, format, err
}

// convert runs one conversion and logs its outcome.
func (s *Server) convert(ctx context.Context, format ingest.Format, data []byte, opts rtjson.Options) (*rtjson.Document, error) {
	start := time.Now()
	doc, err := ingest.Convert(format, data, opts, s.enc.MaxInputBytes)
	if err != nil {
		logging.ConversionFailed(ctx, string(format), err)
		return nil, err
	}
	logging.Conversion(ctx, string(format), len(data), len(doc.Content), time.Since(start))
	return doc, nil
}

// store saves doc in the library and tells WebSocket clients about it.
func (s *Server) store(ctx context.Context, name string, format ingest.Format, doc *rtjson.Document) (library.Record, error) {
	rec, err := s.lib.Put(ctx, name, string(format), doc)
	if err != nil {
		return library.Record{}, err
	}
	logging.DocumentStored(ctx, rec.ID, rec.Name, rec.SHA256, rec.Size)
	s.hub.Broadcast(wsMessage{Type: msgStored, ID: rec.ID, Name: rec.Name})
	return rec, nil
}

// statusForError maps error sentinels to HTTP status codes.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, errors.ErrLimit):
		return http.StatusRequestEntityTooLarge, "LIMIT_EXCEEDED"
	case errors.Is(err, errors.ErrUnsupported):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED"
	case errors.Is(err, errors.ErrMalformed):
		return http.StatusUnprocessableEntity, "MALFORMED_TREE"
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondErr writes err with its mapped status. Internal errors are logged
// and reported without detail.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	respondError(w, status, code, message)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: timestamp()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{Timestamp: timestamp()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := encodeJSON(v)
	if err != nil {
		logging.Error("failed to encode response", "error", err)
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// encodeJSON marshals without HTML escaping; document text is already
// entity-escaped.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
