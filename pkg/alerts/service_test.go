package alerts

import (
	"strings"
	"testing"

	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/coverage"
	"github.com/stewardrx/platform/pkg/microbiology"
)

func coverageAssessment(status coverage.CoverageStatus) coverage.CoverageAssessment {
	return coverage.CoverageAssessment{
		Patient:        models.Patient{FHIRID: "pat-1", Name: "Test Patient", Location: "ICU-4"},
		Culture:        models.CultureResult{FHIRID: "cx-1", Organism: "MRSA"},
		Category:       microbiology.CategoryMRSA,
		Status:         status,
		Recommendation: "start vancomycin",
		MissingCoverage: []string{
			"vancomycin", "linezolid", "daptomycin",
		},
	}
}

func TestFromCoverageInadequate(t *testing.T) {
	alert, ok := FromCoverage(coverageAssessment(coverage.StatusInadequate))
	if !ok {
		t.Fatal("inadequate assessment must produce an alert")
	}
	if alert.Severity != SeverityCritical {
		t.Fatalf("inadequate coverage is critical, got %s", alert.Severity)
	}
	if alert.Category != CategoryCoverage {
		t.Fatalf("unexpected category %s", alert.Category)
	}
	if alert.CultureID != "cx-1" {
		t.Fatal("alert must carry the source culture id for dedupe")
	}
}

func TestFromCoverageNoAlertOnUnknown(t *testing.T) {
	if _, ok := FromCoverage(coverageAssessment(coverage.StatusUnknown)); ok {
		t.Fatal("unknown verdict must never alert")
	}
	if _, ok := FromCoverage(coverageAssessment(coverage.StatusAdequate)); ok {
		t.Fatal("adequate verdict must never alert")
	}
}

func mismatchAssessment(types ...coverage.MismatchType) coverage.MismatchAssessment {
	assessment := coverage.MismatchAssessment{
		Patient:        models.Patient{FHIRID: "pat-1", Name: "Test Patient"},
		Culture:        models.CultureResult{FHIRID: "cx-2", Organism: "Escherichia coli"},
		Recommendation: "switch to meropenem",
	}
	for _, typ := range types {
		assessment.Mismatches = append(assessment.Mismatches, coverage.Mismatch{
			Type:       typ,
			Antibiotic: models.Antibiotic{Name: "ceftriaxone"},
			Susceptibility: models.Susceptibility{
				Organism: "Escherichia coli", Antibiotic: "ceftriaxone", Interpretation: models.Resistant,
			},
		})
	}
	return assessment
}

func TestFromMismatchSeverity(t *testing.T) {
	critical, ok := FromMismatch(mismatchAssessment(coverage.MismatchResistant), false)
	if !ok || critical.Severity != SeverityCritical {
		t.Fatalf("resistant mismatch must be critical, got %+v", critical)
	}

	warning, ok := FromMismatch(mismatchAssessment(coverage.MismatchIntermediate), false)
	if !ok || warning.Severity != SeverityWarning {
		t.Fatalf("intermediate-only mismatch must be a warning, got %+v", warning)
	}

	// Another current agent tested susceptible: downgrade.
	downgraded, ok := FromMismatch(mismatchAssessment(coverage.MismatchResistant), true)
	if !ok || downgraded.Severity != SeverityWarning {
		t.Fatalf("effective coverage elsewhere must downgrade severity, got %+v", downgraded)
	}
}

func TestFromMismatchNoMismatches(t *testing.T) {
	if _, ok := FromMismatch(mismatchAssessment(), false); ok {
		t.Fatal("empty mismatch list must not alert")
	}
}

func TestFromMismatchSummaryNamesConflict(t *testing.T) {
	alert, ok := FromMismatch(mismatchAssessment(coverage.MismatchResistant), false)
	if !ok {
		t.Fatal("expected alert")
	}
	if !strings.Contains(alert.Summary, "ceftriaxone") {
		t.Fatalf("summary should name the offending antibiotic, got %q", alert.Summary)
	}
}
