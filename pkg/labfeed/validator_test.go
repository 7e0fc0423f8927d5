package labfeed

import (
	"testing"

	"github.com/stewardrx/platform/pkg/common/models"
)

func TestValidatorAcceptsKnownSourceAndFormat(t *testing.T) {
	v := NewValidator([]string{"lab", "hospital"}, []string{"fhir", "hl7", "json"})

	err := v.Validate(models.LabResultRequest{
		Source: "Lab",
		Format: "FHIR",
		Data:   map[string]interface{}{"resourceType": "DiagnosticReport"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatorRejectsUnknownSource(t *testing.T) {
	v := NewValidator([]string{"lab"}, []string{"fhir"})

	err := v.Validate(models.LabResultRequest{
		Source: "wearable",
		Format: "fhir",
		Data:   map[string]interface{}{"x": 1},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestValidatorRejectsEmptyPayload(t *testing.T) {
	v := NewValidator([]string{"lab"}, []string{"fhir"})

	err := v.Validate(models.LabResultRequest{Source: "lab", Format: "fhir"})
	if err == nil {
		t.Fatal("expected validation error for missing data")
	}
}
