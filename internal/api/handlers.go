package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/signalsfoundry/foors-plus/model"
)

func (srv *Server) recordMutation(op string) {
	if srv.metrics != nil {
		srv.metrics.RecordMutation(op)
	}
}

func (srv *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := srv.state.AddNode(r.Context(), req.Position.toModel(), req.Type)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	srv.recordMutation("add_node")
	writeJSON(w, http.StatusCreated, addNodeResponse{ID: id})
}

func (srv *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id := model.NodeId(mux.Vars(r)["id"])
	srv.state.RemoveNode(r.Context(), id)
	srv.recordMutation("remove_node")
	writeJSON(w, http.StatusNoContent, nil)
}

func (srv *Server) handleToggleNodeType(w http.ResponseWriter, r *http.Request) {
	id := model.NodeId(mux.Vars(r)["id"])
	if err := srv.state.ToggleNodeType(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	srv.recordMutation("toggle_node_type")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id := model.NodeId(mux.Vars(r)["id"])
	var req vecDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := srv.state.UpdateNodePosition(r.Context(), id, req.toModel()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	srv.recordMutation("update_node_position")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleUpdateVelocity(w http.ResponseWriter, r *http.Request) {
	id := model.NodeId(mux.Vars(r)["id"])
	var req vecDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := srv.state.UpdateNodeVelocity(r.Context(), id, req.toModel()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	srv.recordMutation("update_node_velocity")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes := srv.state.GetNodes()
	out := make([]nodeDTO, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fromNode(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func (srv *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := model.NodeId(mux.Vars(r)["id"])
	n, err := srv.state.GetNode(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fromNode(n))
}

func (srv *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs := srv.state.GetMessages()
	out := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fromMessage(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (srv *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := srv.state.SendMessage(r.Context(), req.From, req.Kind, req.Severity); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	srv.recordMutation("send_message")
	writeJSON(w, http.StatusAccepted, nil)
}

func (srv *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns := srv.state.GetConnections()
	out := make([]connectionDTO, 0, len(conns))
	for _, c := range conns {
		out = append(out, connectionDTO{A: c.A, B: c.B})
	}
	writeJSON(w, http.StatusOK, out)
}

func (srv *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := srv.state.GetStats()
	modeCounts := make(map[string]int, len(stats.ModeCounts))
	for mode, count := range stats.ModeCounts {
		modeCounts[string(mode)] = count
	}
	writeJSON(w, http.StatusOK, statsDTO{
		NodeCount:               stats.NodeCount,
		LinkCount:               stats.LinkCount,
		SinkCount:               stats.SinkCount,
		SourceCount:             stats.SourceCount,
		ModeCounts:              modeCounts,
		QueuedTriageCount:       stats.QueuedTriageCount,
		InFlightMessageCount:    stats.InFlightMessageCount,
		DistinctTriagesObserved: stats.DistinctTriagesObserved,
	})
}

func (srv *Server) handleSetConnectionRadius(w http.ResponseWriter, r *http.Request) {
	var req floatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srv.state.SetConnectionRadius(r.Context(), req.Value)
	srv.recordMutation("set_connection_radius")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleSetInactiveTimeout(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srv.state.SetInactiveRoutingTimeout(r.Context(), time.Duration(req.Milliseconds)*time.Millisecond)
	srv.recordMutation("set_inactive_routing_timeout")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleSetGenerationInterval(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srv.state.SetTriageGenerationInterval(r.Context(), time.Duration(req.Milliseconds)*time.Millisecond)
	srv.recordMutation("set_triage_generation_interval")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleSetRouteExpiry(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srv.state.SetRouteExpiry(r.Context(), time.Duration(req.Milliseconds)*time.Millisecond)
	srv.recordMutation("set_route_expiry")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleSetDefaultMessageSpeed(w http.ResponseWriter, r *http.Request) {
	var req floatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srv.state.SetDefaultMessageSpeed(r.Context(), req.Value)
	srv.recordMutation("set_default_message_speed")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleGetAutoGeneration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, autoGenerationResponse{Active: srv.state.IsAutoGenerationActive()})
}

func (srv *Server) handleStartAutoGeneration(w http.ResponseWriter, r *http.Request) {
	srv.state.StartAutoGeneration(r.Context())
	srv.recordMutation("start_auto_generation")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleStopAutoGeneration(w http.ResponseWriter, r *http.Request) {
	srv.state.StopAutoGeneration(r.Context())
	srv.recordMutation("stop_auto_generation")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	srv.state.Reset(r.Context())
	srv.recordMutation("reset")
	writeJSON(w, http.StatusOK, nil)
}

func (srv *Server) handleRecentTicks(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	recent := srv.metrics.RecentTicks(limit)
	out := make([]tickSummaryDTO, 0, len(recent))
	for _, s := range recent {
		out = append(out, tickSummaryDTO{
			Tick:             s.Tick,
			NodeCount:        s.NodeCount,
			LinkCount:        s.LinkCount,
			InFlightMessages: s.InFlightMessages,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (srv *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srv.state.Tick(r.Context(), req.DeltaSeconds)
	srv.recordMutation("tick")
	writeJSON(w, http.StatusOK, nil)
}
