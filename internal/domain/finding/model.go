// Package finding holds the output value types shared by every evaluator.
package finding

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is the ordered risk tag. Algorithms name the top level differently
// ("critical" for NEWS2, "very-high" for LACE and Braden) but the ordering
// is the same everywhere.
type Level int

const (
	Low Level = iota
	Moderate
	High
	Critical
)

var levelNames = []string{"low", "moderate", "high", "critical"}

func (l Level) String() string {
	if l < Low || l > Critical {
		return fmt.Sprintf("invalid(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	if s == "very-high" {
		*l = Critical
		return nil
	}
	for i, n := range levelNames {
		if s == n {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", string(b))
}

// AtLeast reports whether l is at or above other.
func (l Level) AtLeast(other Level) bool { return l >= other }

// Worst returns the most severe of the given levels, Low when none.
func Worst(levels ...Level) Level {
	worst := Low
	for _, l := range levels {
		if l > worst {
			worst = l
		}
	}
	return worst
}

// Component explains one contributing factor of a score.
type Component struct {
	Factor   string `json:"factor"`
	Value    string `json:"value"`
	Points   int    `json:"points"`
	Criteria string `json:"criteria"`
	Met      bool   `json:"met"`
}

// Adjustment records an input that was clamped into its valid range.
type Adjustment struct {
	Field string  `json:"field"`
	Given float64 `json:"given"`
	Used  float64 `json:"used"`
}

// Finding is one scored sub-assessment. It carries no reference to the
// snapshot that produced it.
type Finding struct {
	Name            string       `json:"name"`
	Score           int          `json:"score"`
	MinScore        int          `json:"minScore"`
	MaxScore        int          `json:"maxScore"`
	Level           Level        `json:"riskLevel"`
	Label           string       `json:"label"`
	Interpretation  string       `json:"interpretation"`
	Components      []Component  `json:"components"`
	Recommendations []string     `json:"recommendations"`
	Adjustments     []Adjustment `json:"adjustments,omitempty"`
}

// Clamped reports whether any input was clamped while computing f.
func (f Finding) Clamped() bool { return len(f.Adjustments) > 0 }

// TopRecommendation returns the first recommendation or "".
func (f Finding) TopRecommendation() string {
	if len(f.Recommendations) == 0 {
		return ""
	}
	return f.Recommendations[0]
}

// Measure formats a numeric input for a component breakdown, e.g. "24 /min".
func Measure(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}
