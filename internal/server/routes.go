package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/frameloop/frameloop/internal/storage"
)

// NewRouter creates the HTTP router: the JSON API plus static file serving
// for the generated assets straight out of the store's directories.
func NewRouter(h *Handlers, store *storage.Store, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/api/next", h.Next).Methods("GET")
	r.HandleFunc("/api/prompt", h.GetPrompt).Methods("GET")
	r.HandleFunc("/api/prompt", h.UpdatePrompt).Methods("POST")
	r.HandleFunc("/upload-inspiration", h.UploadInspiration).Methods("POST")

	r.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(store.ImagesDir()))))
	r.PathPrefix("/videos/").Handler(
		http.StripPrefix("/videos/", http.FileServer(http.Dir(store.VideosDir()))))

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)
	return chain(r)
}
