package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAlerter keeps every alert it is handed
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func (r *recordingAlerter) Notify(_ context.Context, alert Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return r.err
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func TestAlertPolicyThresholds(t *testing.T) {
	policy := DefaultAlertPolicy()

	tests := []struct {
		name     string
		snapshot HazardSnapshot
		reasons  int
	}{
		{"clean air", HazardSnapshot{GasConcentration: 10, CO2EquivalentPPM: 400}, 0},
		{"gas at threshold", HazardSnapshot{GasConcentration: 50}, 0},
		{"co2 at threshold", HazardSnapshot{CO2EquivalentPPM: 1000}, 0},
		{"gas above", HazardSnapshot{GasConcentration: 50.5}, 1},
		{"co2 above", HazardSnapshot{CO2EquivalentPPM: 1001}, 1},
		{"both above", HazardSnapshot{GasConcentration: 300, CO2EquivalentPPM: 4000}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, raised := policy.Check(tt.snapshot)
			assert.Equal(t, tt.reasons > 0, raised)
			assert.Len(t, alert.Reasons, tt.reasons)
		})
	}
}

func TestMultiAlerterJoinsErrors(t *testing.T) {
	ok := &recordingAlerter{}
	broken := &recordingAlerter{err: errors.New("sink down")}

	err := MultiAlerter{ok, broken, LogAlerter{}}.Notify(context.Background(), Alert{Reasons: []string{"test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 1, broken.count())

	assert.NoError(t, MultiAlerter{ok}.Notify(context.Background(), Alert{}))
}

func TestMQTTAlerterRequiresConnection(t *testing.T) {
	a := NewMQTTAlerter(MQTTConfig{Broker: "localhost:1883", Topic: "alerts", ClientID: "test"})

	err := a.Notify(context.Background(), Alert{Reasons: []string{"smoke"}})
	assert.ErrorContains(t, err, "not connected")
	assert.Zero(t, a.Published())

	a.Close()
}

func TestMQTTAlerterAbandonsCancelledConnect(t *testing.T) {
	a := NewMQTTAlerter(MQTTConfig{Broker: "127.0.0.1:1", Topic: "alerts", ClientID: "test"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, a.client)
	assert.False(t, a.client.IsConnectionOpen())
	assert.ErrorContains(t, a.Notify(context.Background(), Alert{Reasons: []string{"smoke"}}), "not connected")

	a.Close()
}
