package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilvora/accessrouter/internal/directory"
	"github.com/nikhilvora/accessrouter/internal/fanout"
	"github.com/nikhilvora/accessrouter/internal/router"
	"github.com/nikhilvora/accessrouter/pkg/apperr"
	"github.com/nikhilvora/accessrouter/pkg/health"
	"github.com/nikhilvora/accessrouter/pkg/metrics"
	"github.com/nikhilvora/accessrouter/pkg/middleware"
	"github.com/nikhilvora/accessrouter/pkg/resilience"
)

// buildAdminMux wires the liveness/readiness endpoints the health checker
// exposes, plus a single /debug/get-users endpoint that drives the Router's
// own GetUsers operation end to end — proof, beyond the test suite, that the
// binary's wiring reaches the façade and not only the surrounding transport/
// config/health plumbing. The Prometheus scrape endpoint lives on its own
// server (see metrics.StartServer) so metrics survive an admin-server
// restart.
func buildAdminMux(checker *health.Checker, m *metrics.Metrics, rtr *router.Router, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", checker.LiveHandler())
	mux.HandleFunc("/health/ready", checker.ReadyHandler())
	mux.HandleFunc("/debug/get-users", debugGetUsersHandler(rtr, log))
	return middleware.Timeout(10 * time.Second)(middleware.Metrics(m)(mux))
}

// debugGetUsersHandler exposes Router.GetUsers over HTTP for operational
// debugging. It is deliberately the only operation wired to a transport in
// this binary — per SPEC_FULL.md §6 the router has no wire format of its
// own, and a full REST front end is out of scope, but one read-only
// diagnostic endpoint is worth the admin surface having something real to
// drive besides health and metrics.
func debugGetUsersHandler(rtr *router.Router, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		users, err := rtr.GetUsers(ctx)
		if err != nil {
			appErr := classifyRouterError(err)
			log.Error("debug get-users failed", "error", err)
			http.Error(w, appErr.Error(), apperr.HTTPStatusCode(appErr))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(users); err != nil {
			log.Error("debug get-users: failed to encode response", "error", err)
		}
	}
}

// classifyRouterError maps a Router operation failure onto the apperr
// sentinel/status-code shape the admin surface responds with: an absent
// shard configuration or a failed shard call are both reported as a
// service-unavailable condition on the shard tier, an UnsupportedParameter
// is the caller's fault, and anything else is an internal error.
func classifyRouterError(err error) *apperr.AppError {
	var noConfig *directory.NoShardConfigurationError
	if errors.As(err, &noConfig) {
		return apperr.New(apperr.ErrShardUnavailable, http.StatusServiceUnavailable, err.Error())
	}
	var shardFailed *fanout.ShardCallFailedError
	if errors.As(err, &shardFailed) {
		return apperr.New(apperr.ErrShardUnavailable, http.StatusServiceUnavailable, err.Error())
	}
	var unsupported *router.UnsupportedParameterError
	if errors.As(err, &unsupported) {
		return apperr.New(apperr.ErrInvalidInput, http.StatusBadRequest, err.Error())
	}
	return apperr.New(apperr.ErrInternal, http.StatusInternalServerError, err.Error())
}

func startAdminServer(port int, handler http.Handler, log *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("admin server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server error", "error", err)
		}
	}()
	return server
}

func defaultCircuitBreakerConfig() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		FailureThreshold:    5,
		ResetTimeout:        30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}
