// Package httpserver builds the registry's *http.Server.
package httpserver

import (
	"net/http"
	"time"

	"studioreg/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	// writeGrace lets a handler that hit its request deadline still write the
	// timeout response.
	writeGrace     = 5 * time.Second
	maxHeaderBytes = 64 << 10
)

// New returns a server for cfg.Addr whose read and write deadlines follow the
// configured request timeout.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + writeGrace,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}
