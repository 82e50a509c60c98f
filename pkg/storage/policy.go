package storage

import "math"

// Policy controls how repeated facts and themes are reinforced.
type Policy struct {
	// FactIncrement is added to a fact's confidence each time it is
	// re-extracted.
	FactIncrement float64 `toml:"fact_increment"`

	// MaxConfidence caps fact and theme confidence.
	MaxConfidence float64 `toml:"max_confidence"`

	// ThemeInitial is the confidence of a newly mentioned theme.
	ThemeInitial float64 `toml:"theme_initial"`

	// ThemeIncrement is added on each further mention.
	ThemeIncrement float64 `toml:"theme_increment"`
}

// DefaultPolicy returns the stock reinforcement policy.
func DefaultPolicy() Policy {
	return Policy{
		FactIncrement:  0.1,
		MaxConfidence:  1.0,
		ThemeInitial:   0.8,
		ThemeIncrement: 0.1,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.FactIncrement <= 0 {
		p.FactIncrement = d.FactIncrement
	}
	if p.MaxConfidence <= 0 {
		p.MaxConfidence = d.MaxConfidence
	}
	if p.ThemeInitial <= 0 {
		p.ThemeInitial = d.ThemeInitial
	}
	if p.ThemeIncrement <= 0 {
		p.ThemeIncrement = d.ThemeIncrement
	}
	return p
}

// ReinforceFact returns the confidence of a re-extracted fact.
func (p Policy) ReinforceFact(confidence float64) float64 {
	return p.capped(confidence + p.FactIncrement)
}

// ReinforceTheme returns the confidence of a re-mentioned theme.
func (p Policy) ReinforceTheme(confidence float64) float64 {
	return p.capped(confidence + p.ThemeIncrement)
}

// capped clamps to MaxConfidence, rounding away float drift so repeated
// increments land on exact tenths.
func (p Policy) capped(c float64) float64 {
	return math.Min(math.Round(c*1e6)/1e6, p.MaxConfidence)
}
