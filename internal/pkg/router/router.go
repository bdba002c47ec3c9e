// Package router is the HTTP surface shared by every module: an httprouter
// based mux, a JSON envelope for results and errors, and the standard
// middleware chain (recover, client ip, correlation id, session cookie,
// observability, maintenance).
package router

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
)

// Handler returns a payload to be wrapped in the success envelope, or an
// error rendered by the error envelope.
type Handler func(r *Request) (any, error)

// Middleware decorates an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain wraps h so that mws[0] is the outermost middleware.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Config holds dependencies required to build a Router.
type Config struct {
	Config     config.Config
	UUID       uid.StringID
	SessionID  uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

type Router struct {
	hr  *httprouter.Router
	jwt jwt.JWT
	mws []Middleware
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "Endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "Method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, errorResponse{Message: "Welcome to the Sports Club API"}, http.StatusOK)
	})

	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Router{
		hr:  hr,
		jwt: cfg.JWT,
		mws: []Middleware{
			recoverer,
			clientIP,
			correlationID(cfg.UUID),
			observability(cfg.Config, ins),
			maintenance(cfg.Config),
			session(newSessionCookie(cfg.Config), cfg.SessionID),
		},
	}
}

// Authenticated rejects requests without a valid bearer token and stores
// the claims in the request context.
func (r *Router) Authenticated() Middleware {
	return authentication(r.jwt)
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws)
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPut, path, h, mws)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodDelete, path, h, mws)
}

func (r *Router) handle(method, path string, h Handler, mws []Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(*statusRecorder); ok {
				rec.err = err
			}
			encodeError(w, err)
			return
		}
		encodeResult(w, resp)
	})

	all := make([]Middleware, 0, len(r.mws)+len(mws))
	all = append(append(all, r.mws...), mws...)
	r.hr.Handler(method, path, Chain(final, all...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

func durationOr(cfg config.Config, key string, def time.Duration) time.Duration {
	if cfg == nil {
		return def
	}
	if d := cfg.GetSecond(key); d > 0 {
		return d
	}
	return def
}
