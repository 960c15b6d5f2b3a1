package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type StaticConfig struct {
	// Dir is served under URL, e.g. "web/static" under "/static".
	Dir string
	URL string
}

// NewRouter wires the chat endpoints, the WebSocket upgrade and the static
// files into one handler.
func NewRouter(ch *ChatHandler, ws http.HandlerFunc, static StaticConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(ch.logRequests)

	r.HandleFunc("/health", ch.Health).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws).Methods(http.MethodGet)

	r.HandleFunc("/add-channel", ch.AddChannel).Methods(http.MethodPost)
	r.HandleFunc("/get-messages", ch.GetMessages).Methods(http.MethodPost)
	r.Handle("/add-message", ch.WithUser(http.HandlerFunc(ch.AddMessage))).Methods(http.MethodPost)
	r.HandleFunc("/initial-counter", ch.InitialCounter).Methods(http.MethodPost)
	r.HandleFunc("/channels", ch.ListChannels).Methods(http.MethodGet)

	if static.Dir != "" {
		prefix := strings.TrimSuffix(static.URL, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(static.Dir))))
	}
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func (ch *ChatHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// Hijacked connections have no status worth logging.
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		ch.log.Log(r.Context(), levelFor(rec.status), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
