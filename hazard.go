package main

import (
	"context"
	"math"
	"sync"
	"time"
)

// hazardNormalizer maps the summed volatiles + CO2-equivalent reading onto [0,1]
const hazardNormalizer = 2000.0

// ADS1115 / MQ-2 calibration used when fusing raw gas sensor samples
const (
	adcFullScaleVolts = 2.048   // PGA +/-2.048V
	adcMaxCount       = 32767.0 // signed 16 bit
	mq2LoadKOhm       = 10.0
	mq2CleanAirRatio  = 9.83
)

// AreaReading is a localized air quality reading for a single area
type AreaReading struct {
	VolatilesPPB     uint16 `json:"volatilesPpb"`
	CO2EquivalentPPM uint16 `json:"co2EquivalentPpm"`
}

// Hazard returns the normalized hazard of the reading
func (r AreaReading) Hazard() float64 {
	return normalizedHazard(r.VolatilesPPB, r.CO2EquivalentPPM)
}

// HazardSnapshot is one tick's environmental reading. It is replaced as a
// whole every tick.
type HazardSnapshot struct {
	VolatilesPPB     uint16              `json:"volatilesPpb"`
	CO2EquivalentPPM uint16              `json:"co2EquivalentPpm"`
	GasVoltage       float64             `json:"gasVoltage"`
	GasConcentration float64             `json:"gasConcentration"`
	AreaReadings     map[int]AreaReading `json:"areaReadings,omitempty"`
	TakenAt          time.Time           `json:"takenAt"`
}

// Hazard returns the facility-wide normalized hazard scalar
func (s HazardSnapshot) Hazard() float64 {
	return normalizedHazard(s.VolatilesPPB, s.CO2EquivalentPPM)
}

func normalizedHazard(volatiles, co2 uint16) float64 {
	return clampRisk((float64(volatiles) + float64(co2)) / hazardNormalizer)
}

// clampRisk forces a risk value into [0,1]. NaN maps to 0.
func clampRisk(r float64) float64 {
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// GasVoltageFromADC converts a raw ADS1115 sample to volts
func GasVoltageFromADC(raw int16) float64 {
	return float64(raw) * adcFullScaleVolts / adcMaxCount
}

// gasSensorResistance returns the MQ-2 sensing resistance in kOhm
func gasSensorResistance(raw int16) float64 {
	voltage := GasVoltageFromADC(raw)
	if voltage <= 0 {
		return 0
	}
	return mq2LoadKOhm * (adcFullScaleVolts - voltage) / voltage
}

// GasConcentrationFromADC estimates the MQ-2 concentration in ppm using a
// power-law curve. Uncalibrated sensors report 0.
func GasConcentrationFromADC(raw int16) float64 {
	rs := gasSensorResistance(raw)
	if rs <= 0 {
		return 0
	}
	return 100.0 * math.Pow(rs/mq2CleanAirRatio, -2.5)
}

// FuseEnvironmental assembles a snapshot from raw sensor values
func FuseEnvironmental(volatiles, co2 uint16, gasADC int16) HazardSnapshot {
	return HazardSnapshot{
		VolatilesPPB:     volatiles,
		CO2EquivalentPPM: co2,
		GasVoltage:       GasVoltageFromADC(gasADC),
		GasConcentration: GasConcentrationFromADC(gasADC),
		TakenAt:          time.Now(),
	}
}

// HazardSource supplies the hazard snapshot for a planning tick
type HazardSource interface {
	Read(ctx context.Context) (HazardSnapshot, error)
}

// LatestHazard keeps the most recently pushed snapshot. The sensor
// collaborator pushes into it, the control loop reads from it.
type LatestHazard struct {
	mu       sync.RWMutex
	snapshot HazardSnapshot
}

// NewLatestHazard creates a source holding a clean-air snapshot
func NewLatestHazard() *LatestHazard {
	return &LatestHazard{snapshot: HazardSnapshot{TakenAt: time.Now()}}
}

// Set replaces the held snapshot
func (l *LatestHazard) Set(snapshot HazardSnapshot) {
	if snapshot.TakenAt.IsZero() {
		snapshot.TakenAt = time.Now()
	}
	l.mu.Lock()
	l.snapshot = snapshot
	l.mu.Unlock()
}

// Read implements HazardSource
func (l *LatestHazard) Read(ctx context.Context) (HazardSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return HazardSnapshot{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot, nil
}
