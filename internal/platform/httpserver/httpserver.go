package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. Write timeout stays generous
// because offline attendance uploads can carry a full day of sessions.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
