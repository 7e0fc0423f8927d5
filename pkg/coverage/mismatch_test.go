package coverage

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stewardrx/platform/pkg/common/models"
)

func ecoliCulture() models.CultureResult {
	return models.CultureResult{
		FHIRID:    "cx-10",
		PatientID: "pat-1",
		Organism:  "Escherichia coli",
		Susceptibilities: []models.Susceptibility{
			{Organism: "Escherichia coli", Antibiotic: "ceftriaxone", Interpretation: models.Resistant},
			{Organism: "Escherichia coli", Antibiotic: "vancomycin", Interpretation: models.Susceptible},
			{Organism: "Escherichia coli", Antibiotic: "meropenem", Interpretation: models.Susceptible},
		},
	}
}

func TestCheckCoverageResistantMismatch(t *testing.T) {
	matcher := NewMatcher()

	mismatches := matcher.CheckCoverage(ecoliCulture(), []models.Antibiotic{
		antibiotic("ceftriaxone", ""),
	})

	if len(mismatches) != 1 {
		t.Fatalf("expected exactly one mismatch, got %d", len(mismatches))
	}
	if mismatches[0].Type != MismatchResistant {
		t.Fatalf("expected RESISTANT, got %s", mismatches[0].Type)
	}
	if mismatches[0].Antibiotic.Name != "ceftriaxone" {
		t.Fatalf("mismatch should name the offending antibiotic, got %q", mismatches[0].Antibiotic.Name)
	}
}

func TestCheckCoverageIntermediate(t *testing.T) {
	matcher := NewMatcher()
	culture := models.CultureResult{
		Organism: "Klebsiella pneumoniae",
		Susceptibilities: []models.Susceptibility{
			{Organism: "Klebsiella pneumoniae", Antibiotic: "cefepime", Interpretation: models.Intermediate},
		},
	}

	mismatches := matcher.CheckCoverage(culture, []models.Antibiotic{antibiotic("cefepime", "")})
	if len(mismatches) != 1 || mismatches[0].Type != MismatchIntermediate {
		t.Fatalf("expected one INTERMEDIATE mismatch, got %v", mismatches)
	}
}

func TestCheckCoverageNoCoverage(t *testing.T) {
	matcher := NewMatcher()

	// Patient is on nothing that was tested, but a susceptible option exists.
	mismatches := matcher.CheckCoverage(ecoliCulture(), []models.Antibiotic{
		antibiotic("metronidazole", ""),
	})

	if len(mismatches) != 1 {
		t.Fatalf("expected a single NO_COVERAGE mismatch, got %d", len(mismatches))
	}
	if mismatches[0].Type != MismatchNoCoverage {
		t.Fatalf("expected NO_COVERAGE, got %s", mismatches[0].Type)
	}
}

func TestCheckCoverageNoSusceptibilityData(t *testing.T) {
	matcher := NewMatcher()
	culture := models.CultureResult{Organism: "Escherichia coli"}

	if got := matcher.CheckCoverage(culture, nil); len(got) != 0 {
		t.Fatalf("no susceptibility data must yield empty result, got %v", got)
	}
	if got := matcher.CheckCoverage(culture, []models.Antibiotic{antibiotic("ceftriaxone", "")}); len(got) != 0 {
		t.Fatalf("no susceptibility data must yield empty result, got %v", got)
	}
}

func TestCheckCoverageSusceptibleAgentIsClean(t *testing.T) {
	matcher := NewMatcher()

	mismatches := matcher.CheckCoverage(ecoliCulture(), []models.Antibiotic{
		antibiotic("meropenem", ""),
	})
	if len(mismatches) != 0 {
		t.Fatalf("susceptible agent must produce no mismatches, got %v", mismatches)
	}
}

func TestCheckCoverageAliasMatching(t *testing.T) {
	matcher := NewMatcher()
	culture := models.CultureResult{
		Organism: "Pseudomonas aeruginosa",
		Susceptibilities: []models.Susceptibility{
			{Organism: "Pseudomonas aeruginosa", Antibiotic: "Piperacillin/Tazobactam", Interpretation: models.Resistant},
		},
	}

	// The order uses a different spelling than the lab panel.
	mismatches := matcher.CheckCoverage(culture, []models.Antibiotic{antibiotic("pip-tazo", "")})
	if len(mismatches) != 1 || mismatches[0].Type != MismatchResistant {
		t.Fatalf("alias spellings must match the panel entry, got %v", mismatches)
	}
}

func TestHasAnyEffectiveCoverage(t *testing.T) {
	matcher := NewMatcher()

	if !matcher.HasAnyEffectiveCoverage(ecoliCulture(), []models.Antibiotic{antibiotic("meropenem", "")}) {
		t.Fatal("meropenem tested susceptible, effective coverage expected")
	}
	if matcher.HasAnyEffectiveCoverage(ecoliCulture(), []models.Antibiotic{antibiotic("ceftriaxone", "")}) {
		t.Fatal("resistant-only regimen must not count as effective coverage")
	}
	if matcher.HasAnyEffectiveCoverage(ecoliCulture(), nil) {
		t.Fatal("empty regimen must not count as effective coverage")
	}
}

func TestAssessMismatchNamesAlternatives(t *testing.T) {
	matcher := NewMatcher()

	assessment := matcher.AssessMismatch(testPatient(), ecoliCulture(), []models.Antibiotic{
		antibiotic("ceftriaxone", ""),
	})

	if !assessment.HasMismatches() {
		t.Fatal("expected a resistant mismatch")
	}
	if !ShouldAlert(assessment) {
		t.Fatal("mismatch assessment must be alertable")
	}
	if !strings.Contains(assessment.Recommendation, "vancomycin") {
		t.Fatalf("recommendation should name a susceptible alternative, got %q", assessment.Recommendation)
	}
}

func TestAssessMismatchCleanRegimen(t *testing.T) {
	matcher := NewMatcher()

	assessment := matcher.AssessMismatch(testPatient(), ecoliCulture(), []models.Antibiotic{
		antibiotic("meropenem", ""),
	})

	if assessment.HasMismatches() {
		t.Fatalf("susceptible regimen must have no mismatches, got %v", assessment.Mismatches)
	}
	if ShouldAlert(assessment) {
		t.Fatal("clean assessment must not alert")
	}
}

func TestAssessMismatchIsIdempotent(t *testing.T) {
	matcher := NewMatcher()
	abx := []models.Antibiotic{antibiotic("ceftriaxone", "")}

	first := matcher.AssessMismatch(testPatient(), ecoliCulture(), abx)
	second := matcher.AssessMismatch(testPatient(), ecoliCulture(), abx)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must yield structurally equal assessments")
	}
}

func TestNormalizeName(t *testing.T) {
	if normalizeName("Piperacillin/Tazobactam") != normalizeName("piperacillin-tazobactam") {
		t.Fatal("punctuation variants must normalize identically")
	}
	if normalizeName("  Vancomycin  ") != "vancomycin" {
		t.Fatal("expected trimmed lowercase name")
	}
}
