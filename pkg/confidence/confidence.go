// Package confidence reduces a weighted signal tally to a score in [0,1].
//
// The ramp is linear and saturates at constants.ConfidenceSaturation: ten
// independent corroborating occurrences are treated as certainty, while a
// single coincidental domain match stays far below the enrichment gate.
package confidence

import (
	"math"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/scanner"
)

// Score returns min(tally/10, 1). Negative or NaN tallies score 0.
func Score(tally float64) float64 {
	if math.IsNaN(tally) || tally <= 0 {
		return 0
	}
	return math.Min(tally/constants.ConfidenceSaturation, 1.0)
}

// ScoreCandidate scores a scan candidate.
func ScoreCandidate(c scanner.MatchCandidate) float64 {
	return Score(c.WeightedScore)
}

// Meets reports whether a confidence passes the enrichment gate.
func Meets(confidence float64) bool {
	return confidence >= constants.EnrichmentThreshold
}
