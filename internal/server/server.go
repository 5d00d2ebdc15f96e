// package server runs the short-lived local HTTP server that receives the
// authorization redirect during login.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Handler defines the interface for HTTP request handlers registered with
// a [Router].
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router is a minimal mux for the callback server. All registered handlers
// are wrapped with request logging.
type Router struct {
	mux    *http.ServeMux
	logger *log.Logger
}

// NewRouter creates a [Router] logging through the given logger.
func NewRouter(logger *log.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

// Handler registers every route a [Handler] serves.
func (r *Router) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, r.logged(handler))
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.logger != nil {
			r.logger.Debugf("%s %s", req.Method, req.URL.Path)
		}
		next.ServeHTTP(w, req)
	})
}
