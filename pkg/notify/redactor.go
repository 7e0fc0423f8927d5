package notify

import (
	"regexp"
)

// RedactionRule masks one class of patient identifier in outbound text.
// Alert payloads leave the platform boundary through notification channels,
// so identifiers are scrubbed before delivery.
type RedactionRule struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Mask    string `yaml:"mask" json:"mask"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

type compiledRule struct {
	rule RedactionRule
	re   *regexp.Regexp
}

type Redactor struct {
	rules []compiledRule
}

func NewRedactor(rules []RedactionRule) (*Redactor, error) {
	var compiled []compiledRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}
	return &Redactor{rules: compiled}, nil
}

func DefaultRedactionRules() []RedactionRule {
	return []RedactionRule{
		{Name: "MRN", Pattern: `\b\d{8}\b`, Mask: "********", Enabled: true},
		{Name: "SSN", Pattern: `\b\d{3}-\d{2}-\d{4}\b`, Mask: "***-**-****", Enabled: true},
		{Name: "DOB", Pattern: `\b\d{1,2}/\d{1,2}/\d{4}\b`, Mask: "##/##/####", Enabled: true},
		{Name: "Phone", Pattern: `\b\d{3}-\d{3}-\d{4}\b|\b\(\d{3}\)\s?\d{3}-\d{4}\b`, Mask: "(***) ***-****", Enabled: true},
	}
}

// Redact masks every identifier occurrence in text.
func (r *Redactor) Redact(text string) string {
	if r == nil {
		return text
	}
	for _, c := range r.rules {
		text = c.re.ReplaceAllString(text, c.rule.Mask)
	}
	return text
}

// RedactMap masks string values of a shallow payload map.
func (r *Redactor) RedactMap(payload map[string]interface{}) map[string]interface{} {
	if r == nil || payload == nil {
		return payload
	}
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok {
			out[k] = r.Redact(s)
		} else {
			out[k] = v
		}
	}
	return out
}
