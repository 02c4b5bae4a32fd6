/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the planner frontend

ROUTE GROUPS:
  /api/seasons/*        Seasons, monthly plans, projections
  /api/projection       Ad-hoc projection
  /api/rules            Rule presets
  /api/rollovers/*      Rollover history, schedule and manual trigger
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness
  /*                    Static files (frontend) or endpoint list

STATIC FILE SERVING:
  Serves the planner frontend from ./public when present.
  Falls back to index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are used when NewRouter gets no origins.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Season routes
		r.Route("/seasons", func(r chi.Router) {
			r.Get("/", h.ListSeasons)
			r.Post("/", h.CreateSeason)
			r.Get("/next", h.NextSeason)
			r.Get("/{id}", h.GetSeason)
			r.Put("/{id}", h.UpdateSeason)
			r.Delete("/{id}", h.DeleteSeason)
			r.Get("/{id}/monthly", h.GetMonthly)
			r.Post("/{id}/monthly", h.SaveMonth)
			r.Put("/{id}/monthly", h.ReplacePlan)
			r.Post("/{id}/reset", h.ResetPlan)
			r.Get("/{id}/projection", h.GetProjection)
		})

		r.Post("/projection", h.Project)
		r.Get("/rules", h.ListRules)

		// Rollover routes
		r.Route("/rollovers", func(r chi.Router) {
			r.Get("/", h.ListRollovers)
			r.Get("/schedule", h.RolloverSchedule)
			r.Post("/run", h.TriggerRollover)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Serve static files (planner frontend)
	staticDir := "./public"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "public")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)

			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Ferieplanlægger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Ferieplanlægger API</h1>
<p>No frontend found in ./public.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/seasons">/api/seasons</a> - List seasons</li>
<li><a href="/api/seasons/next">/api/seasons/next</a> - Suggested next season</li>
<li><a href="/api/rules">/api/rules</a> - Rule presets</li>
<li><a href="/api/rollovers">/api/rollovers</a> - Rollover history</li>
<li><a href="/api/rollovers/schedule">/api/rollovers/schedule</a> - Next automatic rollover</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
