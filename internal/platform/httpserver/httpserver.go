package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Read timeouts allow a full-size CSV upload;
// there is no write timeout because a batch execute holds the response
// open for the whole sequential run.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
}
