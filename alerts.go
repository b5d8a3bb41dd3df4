package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Default alert thresholds
const (
	DefaultGasAlertThreshold = 50.0
	DefaultCO2AlertThreshold = 1000
)

// AlertPolicy raises an alert when either reading strictly exceeds its
// threshold
type AlertPolicy struct {
	GasConcentration float64 `yaml:"gas_concentration"`
	CO2EquivalentPPM uint16  `yaml:"co2_equivalent_ppm"`
}

// DefaultAlertPolicy returns the stock thresholds
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		GasConcentration: DefaultGasAlertThreshold,
		CO2EquivalentPPM: DefaultCO2AlertThreshold,
	}
}

// Alert describes a threshold crossing
type Alert struct {
	Reasons          []string  `json:"reasons"`
	GasConcentration float64   `json:"gasConcentration"`
	CO2EquivalentPPM uint16    `json:"co2EquivalentPpm"`
	Hazard           float64   `json:"hazard"`
	RaisedAt         time.Time `json:"raisedAt"`
}

// Check evaluates the snapshot against the policy
func (p AlertPolicy) Check(snapshot HazardSnapshot) (Alert, bool) {
	var reasons []string
	if snapshot.GasConcentration > p.GasConcentration {
		reasons = append(reasons, fmt.Sprintf("gas concentration %.1f above %.1f", snapshot.GasConcentration, p.GasConcentration))
	}
	if snapshot.CO2EquivalentPPM > p.CO2EquivalentPPM {
		reasons = append(reasons, fmt.Sprintf("co2 equivalent %d ppm above %d", snapshot.CO2EquivalentPPM, p.CO2EquivalentPPM))
	}
	if len(reasons) == 0 {
		return Alert{}, false
	}

	return Alert{
		Reasons:          reasons,
		GasConcentration: snapshot.GasConcentration,
		CO2EquivalentPPM: snapshot.CO2EquivalentPPM,
		Hazard:           snapshot.Hazard(),
		RaisedAt:         time.Now(),
	}, true
}

// Alerter delivers alerts to a sink
type Alerter interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogAlerter writes alerts to the process log
type LogAlerter struct{}

// Notify implements Alerter
func (LogAlerter) Notify(_ context.Context, alert Alert) error {
	log.Printf("🚨 ALERT: %v (hazard %.2f)\n", alert.Reasons, alert.Hazard)
	return nil
}

// MultiAlerter fans an alert out to every sink and joins their errors
type MultiAlerter []Alerter

// Notify implements Alerter
func (m MultiAlerter) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, a := range m {
		if err := a.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MQTTConfig configures the MQTT alert sink
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// MQTTAlerter publishes alerts as JSON to an MQTT topic
type MQTTAlerter struct {
	cfg    MQTTConfig
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
}

// NewMQTTAlerter creates an MQTT alert sink. Connect must be called before
// alerts are delivered.
func NewMQTTAlerter(cfg MQTTConfig) *MQTTAlerter {
	return &MQTTAlerter{cfg: cfg}
}

// Connect establishes the broker connection
func (a *MQTTAlerter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", a.cfg.Broker))
	opts.SetClientID(a.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		a.setConnected(true)
		log.Printf("📡 MQTT connected to %s as %s\n", a.cfg.Broker, a.cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		a.setConnected(false)
		log.Printf("⚠️  MQTT connection lost, reconnecting: %v\n", err)
	}

	a.client = mqtt.NewClient(opts)

	token := a.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		a.abandon()
		return fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		a.abandon()
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	a.setConnected(true)
	return nil
}

// Notify implements Alerter
func (a *MQTTAlerter) Notify(_ context.Context, alert Alert) error {
	if !a.isConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	token := a.client.Publish(a.cfg.Topic, a.cfg.QoS, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	a.mu.Lock()
	a.published++
	a.mu.Unlock()
	return nil
}

// Published returns the number of alerts delivered
func (a *MQTTAlerter) Published() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.published
}

// Close disconnects from the broker
func (a *MQTTAlerter) Close() {
	if a.client != nil && a.client.IsConnected() {
		a.client.Disconnect(250)
		log.Println("📡 MQTT disconnected")
	}
	a.setConnected(false)
}

// abandon stops a connect attempt that is still retrying in the background
func (a *MQTTAlerter) abandon() {
	a.client.Disconnect(0)
	a.setConnected(false)
}

func (a *MQTTAlerter) setConnected(v bool) {
	a.mu.Lock()
	a.connected = v
	a.mu.Unlock()
}

func (a *MQTTAlerter) isConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}
