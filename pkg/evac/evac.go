// Package evac samples inter-facility evacuation travel times from a
// per-route (mean, stddev) table, selecting ground or air transport.
package evac

import (
	"math"

	"gopkg.in/yaml.v3"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

// TimingParams is one transport mode's travel-time distribution, in
// minutes.
type TimingParams struct {
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
}

type routeRaw struct {
	Ground *TimingParams `yaml:"ground"`
	Air    *TimingParams `yaml:"air"`
}

// DefaultMinutes is used for any facility pair with no declared route.
const DefaultMinutes = 60.0

// MinimumMinutes is the floor applied to every sampled travel time.
const MinimumMinutes = 5.0

// Model is the validated, immutable evacuation-timing table.
type Model struct {
	routes map[string]routeRaw
}

// NewModel parses the evacuation_times section of the transition-matrices
// document.
func NewModel(node yaml.Node) (*Model, error) {
	routes := make(map[string]routeRaw)
	if node.Kind != 0 {
		if err := node.Decode(&routes); err != nil {
			return nil, err
		}
	}
	return &Model{routes: routes}, nil
}

// Sample draws a travel time in minutes between two facilities, and
// reports which transport mode was used. Route lookup tries the declared
// direction first, then the reverse key, then falls back to
// DefaultMinutes/ground. Air is preferred for T1 triage when the route
// defines an air entry; otherwise ground is used, falling back to whichever
// mode is actually defined.
func (m *Model) Sample(rng *rngstream.Stream, from, to, triage string) (minutes float64, transport string) {
	route, ok := m.routes[from+"_to_"+to]
	if !ok {
		route, ok = m.routes[to+"_to_"+from]
	}
	if !ok {
		return DefaultMinutes, "ground"
	}

	var params *TimingParams
	switch {
	case triage == "T1" && route.Air != nil:
		params, transport = route.Air, "air"
	case route.Ground != nil:
		params, transport = route.Ground, "ground"
	case route.Air != nil:
		params, transport = route.Air, "air"
	default:
		return DefaultMinutes, "ground"
	}

	sigma := params.Sigma
	if sigma == 0 {
		sigma = 0.2 * params.Mu
	}
	draw := rng.Normal(params.Mu, sigma)
	minutes = math.Max(MinimumMinutes, math.Round(draw))
	return minutes, transport
}
