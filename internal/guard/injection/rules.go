package injection

import "regexp"

// Rule defines a local risk detection pattern. Categories match the risk
// flags the security auditor reports: prompt_injection, system_access,
// harmful_content, data_exfiltration.
type Rule struct {
	Name     string
	Regex    *regexp.Regexp
	Severity float64 // 0.0 to 1.0
	Category string
}

// DefaultRules returns the built-in risk detection rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "ignore_previous",
			Regex:    regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
			Severity: 0.95,
			Category: "prompt_injection",
		},
		{
			Name:     "disregard_prior",
			Regex:    regexp.MustCompile(`(?i)disregard\s+(all\s+)?prior\s+(instructions|context|rules)`),
			Severity: 0.95,
			Category: "prompt_injection",
		},
		{
			Name:     "jailbreak",
			Regex:    regexp.MustCompile(`(?i)(DAN|do\s+anything\s+now|jailbreak|unrestricted\s+mode)`),
			Severity: 0.9,
			Category: "prompt_injection",
		},
		{
			Name:     "system_prefix",
			Regex:    regexp.MustCompile(`(?i)^\s*system\s*:\s*`),
			Severity: 0.85,
			Category: "prompt_injection",
		},
		{
			Name:     "new_instructions",
			Regex:    regexp.MustCompile(`(?i)(new|updated|revised)\s+instructions?\s*:`),
			Severity: 0.8,
			Category: "prompt_injection",
		},
		{
			Name:     "shell_execution",
			Regex:    regexp.MustCompile(`(?i)(execute|run)\s+(this\s+)?(shell|bash|terminal)\s+command`),
			Severity: 0.9,
			Category: "system_access",
		},
		{
			Name:     "filesystem_probe",
			Regex:    regexp.MustCompile(`(?i)(read|cat|dump|list)\s+(the\s+)?(/etc/passwd|/etc/shadow|\.ssh/|filesystem)`),
			Severity: 0.95,
			Category: "system_access",
		},
		{
			Name:     "destructive_command",
			Regex:    regexp.MustCompile(`(?i)rm\s+-rf\s+/`),
			Severity: 0.95,
			Category: "system_access",
		},
		{
			Name:     "system_prompt_exfil",
			Regex:    regexp.MustCompile(`(?i)(reveal|show|print|repeat)\s+(me\s+)?(your|the)\s+(system\s+prompt|instructions|configuration)`),
			Severity: 0.9,
			Category: "data_exfiltration",
		},
		{
			Name:     "credential_exfil",
			Regex:    regexp.MustCompile(`(?i)(reveal|show|leak|share)\s+(your|the)\s+(api\s+key|credentials?|secrets?|password)`),
			Severity: 0.95,
			Category: "data_exfiltration",
		},
	}
}
