package notify

import (
	"strings"
	"testing"
)

func TestRedactorMasksIdentifiers(t *testing.T) {
	redactor, err := NewRedactor(DefaultRedactionRules())
	if err != nil {
		t.Fatalf("failed to build redactor: %v", err)
	}

	text := "Patient MRN 00012345, DOB 4/12/1957, call 555-123-4567"
	redacted := redactor.Redact(text)

	if strings.Contains(redacted, "00012345") {
		t.Fatal("MRN must be masked")
	}
	if strings.Contains(redacted, "4/12/1957") {
		t.Fatal("DOB must be masked")
	}
	if strings.Contains(redacted, "555-123-4567") {
		t.Fatal("phone must be masked")
	}
}

func TestRedactMapOnlyTouchesStrings(t *testing.T) {
	redactor, err := NewRedactor(DefaultRedactionRules())
	if err != nil {
		t.Fatalf("failed to build redactor: %v", err)
	}

	out := redactor.RedactMap(map[string]interface{}{
		"summary": "MRN 00012345 flagged",
		"count":   3,
	})

	if strings.Contains(out["summary"].(string), "00012345") {
		t.Fatal("string value must be redacted")
	}
	if out["count"].(int) != 3 {
		t.Fatal("non-string values must pass through")
	}
}

func TestChannelSeverityMatching(t *testing.T) {
	critical := Channel{Name: "oncall", Enabled: true, Severities: []string{"critical"}}
	if !critical.Matches("critical") {
		t.Fatal("expected match on listed severity")
	}
	if critical.Matches("warning") {
		t.Fatal("unlisted severity must not match")
	}

	all := Channel{Name: "queue", Enabled: true}
	if !all.Matches("warning") {
		t.Fatal("empty severities should match everything")
	}

	disabled := Channel{Name: "off", Enabled: false, Severities: []string{"critical"}}
	if disabled.Matches("critical") {
		t.Fatal("disabled channel must never match")
	}
}
