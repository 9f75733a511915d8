// Package injection provides a regex-based local screen for prompt
// injection and related risk patterns, run before any external call so the
// obviously hostile requests never reach the language-model auditor.
package injection

import (
	"sort"

	"github.com/jcs-corp/jcs-assistant/internal/config"
)

// Detection records a matched risk pattern.
type Detection struct {
	RuleName string
	Severity float64
	Category string
	Start    int
	End      int
}

// Scanner scans prompt text for risk patterns.
type Scanner struct {
	rules []Rule
	cfg   func() config.InjectionFilterConfig
}

func NewScanner(cfg func() config.InjectionFilterConfig) *Scanner {
	return &Scanner{rules: DefaultRules(), cfg: cfg}
}

func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a prompt and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, r := range s.rules {
		locs := r.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				RuleName: r.Name,
				Severity: r.Severity,
				Category: r.Category,
				Start:    loc[0],
				End:      loc[1],
			})
		}
	}
	return detections
}

// Assess scans the prompt and reports whether the max severity crosses the
// block threshold, along with the distinct risk categories matched.
func (s *Scanner) Assess(text string) (blocked bool, categories []string, maxScore float64) {
	if !s.Enabled() {
		return false, nil, 0
	}
	detections := s.Scan(text)
	seen := make(map[string]struct{})
	for _, d := range detections {
		if d.Severity > maxScore {
			maxScore = d.Severity
		}
		if _, ok := seen[d.Category]; !ok {
			seen[d.Category] = struct{}{}
			categories = append(categories, d.Category)
		}
	}
	sort.Strings(categories)
	return maxScore >= s.cfg().BlockThreshold, categories, maxScore
}
