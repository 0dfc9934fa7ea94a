package salonsync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// router wires up the HTTP surface. Split out of Run so handler tests can
// exercise the full routing table through httptest without a listener.
//
// Endpoints:
//
//	GET  /health                      - liveness (unauthenticated)
//	POST /api/auth/register           - create staff account (unauthenticated)
//	POST /api/auth/login              - issue bearer token (unauthenticated)
//	POST /api/auth/logout             - revoke bearer token
//	GET  /api/auth/me                 - identify the calling account
//	GET  /api/appointments/stats      - appointment demand report
//
// and per entity prefix (customers, users, stylists, profiles,
// appointments, earnings, services), all bearer-authenticated:
//
//	POST   {prefix}/create            - insert in primary, mirror best-effort
//	GET    {prefix}/list              - both stores, unmerged
//	GET    {prefix}/search            - filter by name/email, unmerged
//	GET    {prefix}/{id}              - primary only
//	PUT    {prefix}/{id}              - patch both stores
//	DELETE {prefix}/{id}              - delete from both stores
func (a *App) router() *mux.Router {
	router := mux.NewRouter()
	router.Use(a.logRequests)

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", a.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", a.handleLogin).Methods("POST")

	authed := api.NewRoute().Subrouter()
	authed.Use(a.requireAuth)
	authed.HandleFunc("/auth/logout", a.handleLogout).Methods("POST")
	authed.HandleFunc("/auth/me", a.handleMe).Methods("GET")

	// The stats route must register before the generic /{id} routes so mux
	// does not try to parse "stats" as a record id.
	authed.HandleFunc("/appointments/stats", a.handleAppointmentStats).Methods("GET")

	mount(authed, "/customers", a, a.customers)
	mount(authed, "/users", a, a.users)
	mount(authed, "/stylists", a, a.stylists)
	mount(authed, "/profiles", a, a.profiles)
	mount(authed, "/appointments", a, a.appointments)
	mount(authed, "/earnings", a, a.earnings)
	mount(authed, "/services", a, a.services)

	return router
}

// logRequests tags each request with a correlation id and logs it.
func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r)
		a.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// Run starts the HTTP server and blocks until the context is cancelled or
// a fatal server error occurs. On cancellation it allows up to 5 seconds
// for active requests to drain.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Msg("starting salonsync server")

	server := &http.Server{
		Addr:    addr,
		Handler: a.router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
