package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// TickResult is the outcome of one control loop iteration
type TickResult struct {
	Route       *Route       `json:"route"`
	Direction   Cardinal     `json:"direction"`
	Changed     bool         `json:"changed"`
	NoSafeRoute bool         `json:"noSafeRoute"`
	State       MonitorState `json:"-"`
	Alert       *Alert       `json:"alert,omitempty"`
	Hazard      float64      `json:"hazard"`
	RiskVersion uint64       `json:"riskVersion"`
}

// Controller drives the evacuation guidance loop: read hazard, update risks,
// check the active route, refresh the direction hint and notify the display
// and alert sinks
type Controller struct {
	graph   *Graph
	risk    *RiskModel
	monitor *ReplanMonitor
	source  HazardSource
	locator *NodeLocator

	policy  AlertPolicy
	alerter Alerter
	hub     *DisplayHub

	mu    sync.Mutex
	route *Route
	area  int
	last  TickResult
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithAlerts sets the alert policy and sink
func WithAlerts(policy AlertPolicy, alerter Alerter) ControllerOption {
	return func(c *Controller) {
		c.policy = policy
		c.alerter = alerter
	}
}

// WithDisplayHub publishes every tick to the hub
func WithDisplayHub(hub *DisplayHub) ControllerOption {
	return func(c *Controller) { c.hub = hub }
}

// NewController wires the loop. The occupant starts in startArea.
func NewController(graph *Graph, risk *RiskModel, monitor *ReplanMonitor, source HazardSource, startArea int, opts ...ControllerOption) *Controller {
	c := &Controller{
		graph:   graph,
		risk:    risk,
		monitor: monitor,
		source:  source,
		locator: NewNodeLocator(graph.Nodes()),
		policy:  DefaultAlertPolicy(),
		alerter: LogAlerter{},
		area:    startArea,
		last:    TickResult{Direction: Invalid},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Area returns the occupant's current area
func (c *Controller) Area() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.area
}

// SetPosition moves the occupant to an area. A move to a different area
// drops the active route so the next tick plans from the new position.
func (c *Controller) SetPosition(areaID int) error {
	if !c.graph.HasArea(areaID) {
		return fmt.Errorf("%w: area %d", ErrUnknownArea, areaID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.area != areaID {
		c.area = areaID
		c.route = nil
	}
	return nil
}

// SetPositionXY resolves a planar position to the nearest waypoint and moves
// the occupant to its area
func (c *Controller) SetPositionXY(x, y float64) (Node, error) {
	node, ok := c.locator.Nearest(x, y)
	if !ok {
		return Node{}, fmt.Errorf("%w: no waypoint near (%.2f, %.2f)", ErrNotFound, x, y)
	}
	return node, c.SetPosition(node.AreaID)
}

// Last returns the result of the most recent tick
func (c *Controller) Last() TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Tick runs one iteration of the loop. A missing route is not an error: the
// result carries NoSafeRoute and the next tick retries.
func (c *Controller) Tick(ctx context.Context) (TickResult, error) {
	snapshot, err := c.source.Read(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("failed to read hazard: %w", err)
	}

	version := c.risk.UpdateRisks(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.route
	next, err := c.monitor.Evaluate(ctx, previous, c.area)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrSearchAborted) {
		return TickResult{}, err
	}
	if err != nil {
		log.Printf("🚫 No safe route from area %d: %v\n", c.area, err)
	}

	result := TickResult{
		Route:       next,
		Direction:   DirectionOf(next),
		Changed:     next != previous,
		NoSafeRoute: next == nil,
		State:       c.monitor.State(),
		Hazard:      snapshot.Hazard(),
		RiskVersion: version,
	}

	if alert, raised := c.policy.Check(snapshot); raised {
		result.Alert = &alert
		alertsTotal.Inc()
		if c.alerter != nil {
			if err := c.alerter.Notify(ctx, alert); err != nil {
				log.Printf("⚠️  Failed to deliver alert: %v\n", err)
			}
		}
	}

	c.route = next
	c.last = result

	if c.hub != nil {
		c.hub.Broadcast(RouteUpdate{
			Route:       next,
			Direction:   result.Direction,
			Glyph:       result.Direction.Glyph(),
			NoSafeRoute: result.NoSafeRoute,
			Alert:       result.Alert,
			Hazard:      result.Hazard,
			RiskVersion: version,
			SentAt:      time.Now(),
		})
	}

	return result, nil
}

// Run ticks at the given interval until the context is done
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	log.Printf("⏱️  Control loop started (tick %s)\n", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Printf("⚠️  Tick failed: %v\n", err)
		}

		select {
		case <-ctx.Done():
			log.Println("⏱️  Control loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
