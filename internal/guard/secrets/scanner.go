// Package secrets detects credential material embedded in prompts. A prompt
// carrying live keys is rejected locally rather than forwarded to any
// external capability.
package secrets

// Detection represents a detected credential in text.
type Detection struct {
	PatternName string
	Start       int
	End         int
}

// Scanner scans text for credentials using pre-compiled regex patterns.
type Scanner struct {
	patterns []Pattern
}

func NewScanner() *Scanner {
	return &Scanner{patterns: DefaultPatterns()}
}

// Scan checks a text string for credentials and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, p := range s.patterns {
		locs := p.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				PatternName: p.Name,
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}
	return detections
}
