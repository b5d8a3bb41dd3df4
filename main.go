package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	mapPath := flag.String("map", "", "map description or graph JSON (overrides config)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	exportPath := flag.String("export-graph", "", "write the loaded graph as JSON and exit")
	flag.Parse()

	log.Println("========================================")
	log.Println("🚀 Evacuation Route Planner")
	log.Println("========================================")

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		cfg = loaded
	}
	if *mapPath != "" {
		cfg.MapPath = *mapPath
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	graph, err := LoadGraph(cfg.MapPath, WithCapacity(cfg.MaxNodes, cfg.MaxEdges))
	if err != nil {
		log.Fatalf("❌ failed to load map: %v", err)
	}
	for _, area := range cfg.ExitAreas {
		if err := graph.MarkExit(area); err != nil {
			log.Printf("⚠️  Exit area %d ignored: %v\n", area, err)
		}
	}
	if len(graph.Exits()) == 0 {
		log.Println("⚠️  No exit areas flagged, evacuation routes will not be found")
	}

	if *exportPath != "" {
		if err := SaveGraph(graph, *exportPath); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	startArea, err := cfg.startArea(graph)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	mapper, err := cfg.hazardMapper()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if cfg.HazardZonesPath != "" {
		zones, err := LoadHazardZones(cfg.HazardZonesPath)
		if err != nil {
			log.Printf("⚠️  Hazard zones not loaded: %v\n", err)
		} else {
			mapper = NewZoneHazard(graph, NewZoneIndex(MergeHazardZones(zones)), mapper)
		}
	}

	policy, err := ParseExitPolicy(cfg.ExitPolicy)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	finder := NewPathFinder(graph,
		WithMaxIterations(cfg.MaxIterations),
		WithExitPolicy(policy),
	)
	risk := NewRiskModel(graph, mapper)
	monitor := NewReplanMonitor(graph, finder, cfg.HazardThreshold)
	hazard := NewLatestHazard()
	hub := NewDisplayHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alerters := MultiAlerter{LogAlerter{}}
	if cfg.MQTT.Enabled {
		mqttAlerter := NewMQTTAlerter(cfg.MQTT)
		if err := mqttAlerter.Connect(ctx); err != nil {
			log.Printf("⚠️  MQTT alerts disabled: %v\n", err)
		} else {
			defer mqttAlerter.Close()
			alerters = append(alerters, mqttAlerter)
		}
	}

	log.Printf("📍 Occupant starts in area %d\n", startArea)
	controller := NewController(graph, risk, monitor, hazard, startArea,
		WithAlerts(cfg.Alerts, alerters),
		WithDisplayHub(hub),
	)

	server := NewServer(graph, finder, controller, hazard, hub)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go controller.Run(ctx, cfg.TickInterval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Shutdown: %v\n", err)
		}
	}()

	log.Printf("Server starting on %s\n", cfg.ListenAddr)
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /route           - Compute route between areas")
	log.Println("  GET  /route/current   - Route the control loop is guiding along")
	log.Println("  GET  /route/geojson   - Current route as GeoJSON")
	log.Println("  POST /hazard          - Push a sensor reading")
	log.Println("  POST /position        - Report occupant position")
	log.Println("  GET  /graphLines      - Corridors for visualization")
	log.Println("  GET  /graph/geojson   - Graph with current risk as GeoJSON")
	log.Println("  GET  /health          - Check server status")
	log.Println("  GET  /metrics         - Prometheus metrics")
	log.Println("  GET  /ws              - Display updates (WebSocket)")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("👋 Server stopped")
}
