package routing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/injector"
	"github.com/km-arc/go-inject/framework/logging"
)

// Router wraps chi.Router and can dispatch requests to injected functions.
type Router struct {
	mux chi.Router
	inj *injector.Injector
	log *slog.Logger
}

// New creates a Router with RealIP and Recoverer middleware, and stores log
// in every request context (logging.FromContext). Handlers registered with
// Inject resolve their parameters through inj.
func New(inj *injector.Injector, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(logging.WithContext(req.Context(), log)))
		})
	})
	return &Router{mux: r, inj: inj, log: log}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// ── Injected handlers ────────────────────────────────────────────────────────

// Inject routes method+pattern to fn. On every request fn is injected with
// the overrides "w", "r", "request" and "response"; its other parameters
// resolve through the injector, under one operation lock per request. A non-nil result is sent as {"data": v}.
//
//	router.Inject(http.MethodGet, "/greeting", injector.Fn(
//	    func(res *gohttp.Response, greeting string) { res.Success(greeting) },
//	    injector.Arg("response"), injector.Arg("greeting"),
//	))
func (r *Router) Inject(method, pattern string, fn *injector.Func) {
	r.mux.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		request, res := gohttp.NewRequest(req), gohttp.NewResponse(w)
		out, err := r.inj.Inject(injector.Overrides{
			"w":        w,
			"r":        req,
			"request":  request,
			"response": res,
		}, fn)
		if err != nil {
			logging.FromContext(req.Context()).Error("injected handler failed",
				slog.String("method", request.Method()),
				slog.String("path", request.Path()),
				slog.String("pattern", pattern),
				slog.Any("error", err),
			)
			res.ResolveError(err)
			return
		}
		if out != nil {
			res.Success(out)
		}
	}))
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group sharing middleware.
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx, inj: r.inj, log: r.log})
	})
}

// Prefix creates a sub-router mounted under pattern.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, inj: r.inj, log: r.log})
	})
}

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// Param extracts a URL param.
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
