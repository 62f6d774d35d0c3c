// Package api exposes ScenarioState's mutation and observation
// surface over HTTP+JSON, using gorilla/mux for routing. This
// replaces the teacher's generated-gRPC NBI surface (see DESIGN.md:
// the gRPC/protobuf stack existed only to serve handlers generated
// from a proto module that cannot be fetched here) while keeping the
// same request-validate-dispatch-respond handler shape.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/signalsfoundry/foors-plus/internal/logging"
	"github.com/signalsfoundry/foors-plus/internal/observability"
	"github.com/signalsfoundry/foors-plus/internal/sim/state"
)

// Server bundles a ScenarioState with the logger and metrics
// collector its handlers report through.
type Server struct {
	state   *state.ScenarioState
	log     logging.Logger
	metrics *observability.Collector
}

// NewServer constructs a Server around state.
func NewServer(s *state.ScenarioState, log logging.Logger, metrics *observability.Collector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{state: s, log: log, metrics: metrics}
}

// NewRouter builds the gorilla/mux router exposing every mutation and
// observation endpoint.
func (srv *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.StrictSlash(true)
	r.Use(srv.requestLoggingMiddleware)

	r.HandleFunc("/nodes", srv.handleAddNode).Methods(http.MethodPost)
	r.HandleFunc("/nodes", srv.handleListNodes).Methods(http.MethodGet)
	r.HandleFunc("/nodes/{id}", srv.handleGetNode).Methods(http.MethodGet)
	r.HandleFunc("/nodes/{id}", srv.handleRemoveNode).Methods(http.MethodDelete)
	r.HandleFunc("/nodes/{id}/toggle-type", srv.handleToggleNodeType).Methods(http.MethodPost)
	r.HandleFunc("/nodes/{id}/position", srv.handleUpdatePosition).Methods(http.MethodPut)
	r.HandleFunc("/nodes/{id}/velocity", srv.handleUpdateVelocity).Methods(http.MethodPut)

	r.HandleFunc("/messages", srv.handleListMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages", srv.handleSendMessage).Methods(http.MethodPost)

	r.HandleFunc("/connections", srv.handleListConnections).Methods(http.MethodGet)
	r.HandleFunc("/stats", srv.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/config/connection-radius", srv.handleSetConnectionRadius).Methods(http.MethodPut)
	r.HandleFunc("/config/inactive-routing-timeout-ms", srv.handleSetInactiveTimeout).Methods(http.MethodPut)
	r.HandleFunc("/config/triage-generation-interval-ms", srv.handleSetGenerationInterval).Methods(http.MethodPut)
	r.HandleFunc("/config/route-expiry-ms", srv.handleSetRouteExpiry).Methods(http.MethodPut)
	r.HandleFunc("/config/default-message-speed", srv.handleSetDefaultMessageSpeed).Methods(http.MethodPut)

	r.HandleFunc("/auto-generation", srv.handleGetAutoGeneration).Methods(http.MethodGet)
	r.HandleFunc("/auto-generation/start", srv.handleStartAutoGeneration).Methods(http.MethodPost)
	r.HandleFunc("/auto-generation/stop", srv.handleStopAutoGeneration).Methods(http.MethodPost)

	r.HandleFunc("/reset", srv.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/tick", srv.handleTick).Methods(http.MethodPost)

	if srv.metrics != nil {
		r.Handle("/metrics", srv.metrics.Handler()).Methods(http.MethodGet)
		r.HandleFunc("/debug/recent-ticks", srv.handleRecentTicks).Methods(http.MethodGet)
	}

	return r
}
