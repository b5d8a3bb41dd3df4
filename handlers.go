package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRequest asks for a route between two areas. Without an end area the
// route leads to the exit chosen by the exit policy.
type RouteRequest struct {
	StartArea int  `json:"startArea"`
	EndArea   *int `json:"endArea,omitempty"`
}

// RouteResponse carries a computed route
type RouteResponse struct {
	Route     *Route   `json:"route,omitempty"`
	Direction Cardinal `json:"direction"`
	Glyph     string   `json:"glyph"`
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
}

// HazardRequest is a raw reading pushed by the sensor collaborator. When
// GasADC is present the MQ-2 sample is fused into voltage and concentration.
type HazardRequest struct {
	VolatilesPPB     uint16              `json:"volatilesPpb"`
	CO2EquivalentPPM uint16              `json:"co2EquivalentPpm"`
	GasADC           *int16              `json:"gasAdc,omitempty"`
	GasConcentration float64             `json:"gasConcentration,omitempty"`
	AreaReadings     map[int]AreaReading `json:"areaReadings,omitempty"`
}

// Snapshot converts the request to a hazard snapshot
func (r HazardRequest) Snapshot() HazardSnapshot {
	var snapshot HazardSnapshot
	if r.GasADC != nil {
		snapshot = FuseEnvironmental(r.VolatilesPPB, r.CO2EquivalentPPM, *r.GasADC)
	} else {
		snapshot = HazardSnapshot{
			VolatilesPPB:     r.VolatilesPPB,
			CO2EquivalentPPM: r.CO2EquivalentPPM,
			GasConcentration: r.GasConcentration,
		}
	}
	snapshot.AreaReadings = r.AreaReadings
	return snapshot
}

// PositionRequest reports the occupant position, either as an area or as
// planar coordinates
type PositionRequest struct {
	AreaID *int     `json:"areaId,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// Server exposes the planner over HTTP
type Server struct {
	graph      *Graph
	finder     *PathFinder
	controller *Controller
	hazard     *LatestHazard
	hub        *DisplayHub
}

// NewServer creates the HTTP front of the planner
func NewServer(graph *Graph, finder *PathFinder, controller *Controller, hazard *LatestHazard, hub *DisplayHub) *Server {
	return &Server{
		graph:      graph,
		finder:     finder,
		controller: controller,
		hazard:     hazard,
		hub:        hub,
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/route", corsMiddleware(s.routeHandler))
	mux.HandleFunc("/route/current", corsMiddleware(s.currentRouteHandler))
	mux.HandleFunc("/route/geojson", corsMiddleware(s.routeGeoJSONHandler))
	mux.HandleFunc("/hazard", corsMiddleware(s.hazardHandler))
	mux.HandleFunc("/position", corsMiddleware(s.positionHandler))
	mux.HandleFunc("/graphLines", corsMiddleware(s.graphLinesHandler))
	mux.HandleFunc("/graph/geojson", corsMiddleware(s.graphGeoJSONHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.ServeWS)
	}
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to encode response: %v\n", err)
	}
}

// POST /route - compute a route between two areas
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var endArea int
	if req.EndArea != nil {
		endArea = *req.EndArea
	} else {
		exit, err := s.finder.FindNearestExit(ctx, req.StartArea)
		if err != nil {
			writeJSON(w, http.StatusNotFound, RouteResponse{
				Direction: Invalid,
				Glyph:     Invalid.Glyph(),
				Message:   err.Error(),
			})
			return
		}
		endArea = exit
	}

	log.Printf("📍 Route request: area %d -> area %d\n", req.StartArea, endArea)

	route, err := s.finder.FindPath(ctx, req.StartArea, endArea)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, ErrSearchAborted) {
			status = http.StatusServiceUnavailable
		}
		log.Printf("❌ %v\n", err)
		writeJSON(w, status, RouteResponse{
			Direction: Invalid,
			Glyph:     Invalid.Glyph(),
			Message:   err.Error(),
		})
		return
	}

	direction := DirectionOf(route)
	writeJSON(w, http.StatusOK, RouteResponse{
		Route:     route,
		Direction: direction,
		Glyph:     direction.Glyph(),
		Success:   true,
	})
}

// GET /route/current - the route the control loop is guiding along
func (s *Server) currentRouteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	last := s.controller.Last()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"area":        s.controller.Area(),
		"state":       last.State.String(),
		"route":       last.Route,
		"direction":   last.Direction,
		"glyph":       last.Direction.Glyph(),
		"noSafeRoute": last.NoSafeRoute,
		"alert":       last.Alert,
		"riskVersion": last.RiskVersion,
	})
}

// GET /route/geojson - the current route as GeoJSON
func (s *Server) routeGeoJSONHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, RouteGeoJSON(s.controller.Last().Route))
}

// POST /hazard - push a sensor reading
func (s *Server) hazardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req HazardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snapshot := req.Snapshot()
	s.hazard.Set(snapshot)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":          true,
		"hazard":           snapshot.Hazard(),
		"gasConcentration": snapshot.GasConcentration,
	})
}

// POST /position - report the occupant position
func (s *Server) positionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch {
	case req.AreaID != nil:
		if err := s.controller.SetPosition(*req.AreaID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	case req.X != nil && req.Y != nil:
		node, err := s.controller.SetPositionXY(*req.X, *req.Y)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("📍 Position (%.2f, %.2f) resolved to node %d in area %d\n", *req.X, *req.Y, node.ID, node.AreaID)
	default:
		http.Error(w, "areaId or x and y required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"area":    s.controller.Area(),
	})
}

// GET /graphLines - corridors as line strings for visualization
func (s *Server) graphLinesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lines := GraphLines(s.graph)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"lines":    lines,
		"numNodes": s.graph.NodeCount(),
		"numEdges": len(lines),
	})
}

// GET /graph/geojson - waypoints and corridors with current risk
func (s *Server) graphGeoJSONHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, GraphGeoJSON(s.graph))
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if len(s.graph.Exits()) == 0 {
		status = "no exits configured"
	}

	displays := 0
	if s.hub != nil {
		displays = s.hub.Len()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"numNodes":    s.graph.NodeCount(),
		"numEdges":    s.graph.EdgeCount(),
		"exits":       s.graph.Exits(),
		"riskVersion": s.graph.RiskVersion(),
		"state":       s.controller.Last().State.String(),
		"displays":    displays,
	})
}
