package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraversalCostIsMonotone(t *testing.T) {
	distances := []float64{0, 0.5, 1, 10, 14.14, 250}
	risks := []float64{0, 0.1, 0.25, 0.5, 0.8, 1}

	for i, d := range distances {
		for j, r := range risks {
			cost := TraversalCost(d, r)
			if i > 0 {
				assert.GreaterOrEqual(t, cost, TraversalCost(distances[i-1], r))
			}
			if j > 0 {
				assert.GreaterOrEqual(t, cost, TraversalCost(d, risks[j-1]))
			}
		}
	}

	assert.InDelta(t, 155.54, TraversalCost(14.14, 1), 1e-9)
	assert.Equal(t, 20.0, TraversalCost(20, 0))
}

func TestUniformHazard(t *testing.T) {
	g := squareGraph(t)
	rm := NewRiskModel(g, UniformHazard{})

	version := rm.UpdateRisks(HazardSnapshot{VolatilesPPB: 300, CO2EquivalentPPM: 700})
	assert.Equal(t, uint64(1), version)
	for _, e := range g.Edges() {
		assert.InDelta(t, 0.5, e.Risk, 1e-9)
	}

	rm.UpdateRisks(HazardSnapshot{VolatilesPPB: 60000, CO2EquivalentPPM: 60000})
	for _, e := range g.Edges() {
		assert.Equal(t, 1.0, e.Risk)
	}
	assert.Equal(t, 1.0, g.AreaRisk(103))
}

func TestAreaHazard(t *testing.T) {
	g := squareGraph(t)
	rm := NewRiskModel(g, AreaHazard{})

	rm.UpdateRisks(HazardSnapshot{
		VolatilesPPB:     100,
		CO2EquivalentPPM: 100, // facility-wide 0.1
		AreaReadings: map[int]AreaReading{
			103: {VolatilesPPB: 900, CO2EquivalentPPM: 900}, // 0.9
		},
	})

	assert.InDelta(t, 0.1, g.AreaRisk(101), 1e-9)
	assert.InDelta(t, 0.9, g.AreaRisk(103), 1e-9)

	// 1 -> 2 is clean, 2 -> 3 and 1 -> 3 enter the hazardous area
	e12, _ := g.EdgeBetween(1, 2)
	e23, _ := g.EdgeBetween(2, 3)
	e13, _ := g.EdgeBetween(1, 3)
	assert.InDelta(t, 0.1, e12.Risk, 1e-9)
	assert.InDelta(t, 0.9, e23.Risk, 1e-9)
	assert.InDelta(t, 0.9, e13.Risk, 1e-9)
}

// wildMapper returns out-of-range risks
type wildMapper struct{ value float64 }

func (m wildMapper) AreaRisk(int, HazardSnapshot) float64            { return m.value }
func (m wildMapper) EdgeRisk(Edge, int, int, HazardSnapshot) float64 { return m.value }

func TestRiskIsClamped(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"negative", -3, 0},
		{"above one", 7.5, 1},
		{"nan", math.NaN(), 0},
		{"in range", 0.3, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := squareGraph(t)
			NewRiskModel(g, wildMapper{tt.value}).UpdateRisks(HazardSnapshot{})
			for _, e := range g.Edges() {
				assert.Equal(t, tt.want, e.Risk)
			}
			assert.Equal(t, tt.want, g.AreaRisk(101))
		})
	}
}

func TestNilMapperDefaultsToUniform(t *testing.T) {
	g := squareGraph(t)
	rm := NewRiskModel(g, nil)
	require.IsType(t, UniformHazard{}, rm.mapper)
}
