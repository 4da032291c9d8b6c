// Package httpapi mounts the server's HTTP surface: health, metrics, session issuance, the
// client WebSocket and the loopback-only admin routes.
package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"waymark.ai/internal/auth"
	"waymark.ai/internal/persistence/indexdb"
	"waymark.ai/internal/sim/world"
	"waymark.ai/internal/transport/observer"
)

type Config struct {
	SessionsPerMinute int
	AllowedOrigins    []string

	EnableAdmin bool
	EnablePprof bool
}

// IndexStats is the read side of an index backend; nil disables index metrics.
type IndexStats interface {
	Stats() indexdb.QueueStats
}

type Deps struct {
	World  *world.World
	Auth   *auth.Service
	WS     http.Handler
	Index  IndexStats
	Logger *log.Logger
}

func NewRouter(cfg Config, d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	r.Get("/metrics", metricsHandler(d.World, d.Index))

	r.Route("/v1", func(v1 chi.Router) {
		v1.With(rateLimit(cfg.SessionsPerMinute, time.Minute, d.Logger)).
			Post("/session", sessionHandler(d.Auth))
		if d.WS != nil {
			v1.Handle("/ws", d.WS)
		}
	})

	if cfg.EnableAdmin {
		obs := observer.NewServer(d.World, d.Logger)
		r.Route("/admin/v1", func(a chi.Router) {
			a.Use(loopbackOnly)
			a.Use(middleware.NoCache)
			adminRoutes(a, d.World)
			a.Get("/observer/bootstrap", obs.BootstrapHandler())
			a.Get("/observer/ws", obs.WSHandler())
		})
	} else {
		d.Logger.Printf("admin endpoints disabled")
	}
	if cfg.EnablePprof {
		r.With(loopbackOnly).Mount("/debug", middleware.Profiler())
	}
	return r
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !observer.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}
