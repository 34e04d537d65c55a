package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"jamwathq/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.Internal:              http.StatusInternalServerError,
	apperr.Unauthenticated:       http.StatusUnauthorized,
	apperr.InvalidOrExpiredToken: http.StatusUnauthorized,
	apperr.AccountInactive:       http.StatusForbidden,
	apperr.AccountLocked:         http.StatusForbidden,
	apperr.Forbidden:             http.StatusForbidden,
	apperr.RateLimited:           http.StatusTooManyRequests,
	apperr.StoreUnavailable:      http.StatusInternalServerError,
	apperr.NotFound:              http.StatusNotFound,
	apperr.InvalidInput:          http.StatusBadRequest,
	apperr.Conflict:              http.StatusConflict,
	apperr.Unavailable:           http.StatusServiceUnavailable,
	apperr.PayloadTooLarge:       http.StatusRequestEntityTooLarge,
}

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

var ErrBodyTooLarge = apperr.New(apperr.PayloadTooLarge, "Request body is too large")

// StatusFor translates an error kind into its HTTP status.
func StatusFor(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Response is what a handler returns; Handle renders it after the handler
// has finished, so wrappers can inspect the outcome first.
type Response struct {
	Status  int
	Message string
	Data    map[string]any
	Header  http.Header
}

func OK(data map[string]any) *Response {
	return &Response{Status: http.StatusOK, Data: data}
}

func Created(message string, data map[string]any) *Response {
	return &Response{Status: http.StatusCreated, Message: message, Data: data}
}

type HandlerFunc func(r *http.Request) (*Response, error)

// Handle adapts a HandlerFunc to net/http. Errors go through WriteError.
func Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h(r)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if resp == nil {
			resp = OK(nil)
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		for k, v := range resp.Header {
			w.Header()[k] = append(w.Header()[k], v...)
		}
		WriteEnvelope(w, status, resp.Message, resp.Data)
	}
}

// HeaderWriter collects headers for APIs that need an http.ResponseWriter,
// such as cookie stores. Anything written to it is discarded.
type HeaderWriter struct {
	header http.Header
}

func NewHeaderWriter() *HeaderWriter {
	return &HeaderWriter{header: make(http.Header)}
}

func (w *HeaderWriter) Header() http.Header { return w.header }

func (w *HeaderWriter) Write(b []byte) (int, error) { return len(b), nil }

func (w *HeaderWriter) WriteHeader(int) {}

// WriteEnvelope writes {success, message, ...data}.
func WriteEnvelope(w http.ResponseWriter, status int, message string, data map[string]any) {
	body := make(map[string]any, len(data)+2)
	for k, v := range data {
		body[k] = v
	}
	body["success"] = status >= 200 && status < 300
	if message != "" {
		body["message"] = message
	}
	WriteJSON(w, status, body)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError is the single translation point from error kinds to HTTP
// responses. Server-side failures are logged with their cause; the client
// only ever sees the kind's public message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := StatusFor(e.Kind)
	if status >= http.StatusInternalServerError && e.Kind != apperr.Unavailable {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", e.Kind.String(), "error", err)
	}
	WriteEnvelope(w, status, e.Message, e.Fields)
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Invalid("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return apperr.Invalid("Invalid JSON body")
	}
	return nil
}

// LimitBody caps every request body at max bytes; reads past the cap fail
// with *http.MaxBytesError. A non-positive max uses DefaultMaxBodyBytes.
func LimitBody(max int64) func(http.Handler) http.Handler {
	if max <= 0 {
		max = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				WriteError(w, r, ErrBodyTooLarge)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote host. chi's RealIP middleware has
// already replaced RemoteAddr with the forwarded address when present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
