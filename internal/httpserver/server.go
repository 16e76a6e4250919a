// internal/httpserver/server.go
//
// HTTP server wiring for the darts scorekeeper.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/checkout".
//   - Match endpoints: mounted under /matches (routes_match.go).
//   - Scorer tokens: HS256 JWTs bound to one match, required to mutate it.
//
// Notes:
//   - Mutations hold the server-wide lock for writing: one logical scorer at a time.
//   - Reads and live joins hold it for reading, so they never see a half-applied turn.
//   - The live websocket route is the only one without the timeout middleware.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/darts/apps/go-server/internal/checkout"
	"github.com/robalobadob/darts/apps/go-server/internal/config"
	"github.com/robalobadob/darts/apps/go-server/internal/live"
	"github.com/robalobadob/darts/apps/go-server/internal/store"
)

// Server bundles router, session store, live hub and settings.
type Server struct {
	r     *chi.Mux
	store store.Store
	hub   *live.Hub
	cfg   config.Config
	mu    sync.RWMutex // writers: match mutations; readers: state views
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, hub *live.Hub, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), store: st, hub: hub, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(corsFor(cfg.ClientOrigin))

	// Live watchers hold their connection open, so only the other routes get a timeout.
	timeout := chimw.Timeout(cfg.RequestTimeout)

	// --- diagnostics ---
	s.r.With(timeout).Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"darts-go","endpoints":["/health","/checkout","/matches"]}`))
	})
	s.r.With(timeout).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.With(timeout).Get("/checkout", s.handleCheckout)
	s.mountMatches(s.r, timeout)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ----------------------------- checkout ------------------------------------

type checkoutRes struct {
	Remaining int      `json:"remaining"`
	DoubleOut bool     `json:"doubleOut"`
	Darts     []string `json:"darts"`
	Found     bool     `json:"found"`
}

// handleCheckout answers GET /checkout?remaining=N&doubleOut=bool.
// doubleOut defaults to true.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	remaining, err := strconv.Atoi(r.URL.Query().Get("remaining"))
	if err != nil {
		http.Error(w, `{"error":"bad_remaining"}`, http.StatusBadRequest)
		return
	}
	doubleOut := true
	if v := r.URL.Query().Get("doubleOut"); v != "" {
		if doubleOut, err = strconv.ParseBool(v); err != nil {
			http.Error(w, `{"error":"bad_double_out"}`, http.StatusBadRequest)
			return
		}
	}
	res := checkoutRes{Remaining: remaining, DoubleOut: doubleOut, Darts: []string{}}
	if sug, ok := checkout.BestCheckout(remaining, doubleOut); ok {
		res.Darts, res.Found = sug.Codes(), true
	}
	_ = json.NewEncoder(w).Encode(res)
}
