package coverage

import (
	"reflect"
	"testing"

	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/microbiology"
)

func strPtr(s string) *string { return &s }

func antibiotic(name, code string) models.Antibiotic {
	ab := models.Antibiotic{FHIRID: "med-" + name, Name: name}
	if code != "" {
		ab.RxNormCode = strPtr(code)
	}
	return ab
}

func testPatient() models.Patient {
	return models.Patient{FHIRID: "pat-1", MRN: "00012345", Name: "Test Patient", Location: "ICU-4"}
}

func mrsaCulture() models.CultureResult {
	return models.CultureResult{FHIRID: "cx-1", PatientID: "pat-1", Organism: "MRSA"}
}

func TestAssessAdequateForMRSA(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())

	result := assessor.Assess(testPatient(), mrsaCulture(), []models.Antibiotic{
		antibiotic("vancomycin", microbiology.RxVancomycin),
	})

	if result.Status != StatusAdequate {
		t.Fatalf("expected adequate, got %s (%s)", result.Status, result.Recommendation)
	}
	if result.Recommendation == "" {
		t.Fatal("expected a recommendation naming the covering antibiotic")
	}
	if len(result.MissingCoverage) != 0 {
		t.Fatalf("adequate assessment must not list missing coverage, got %v", result.MissingCoverage)
	}
}

func TestAssessInadequateForMRSA(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())

	result := assessor.Assess(testPatient(), mrsaCulture(), []models.Antibiotic{
		antibiotic("cefazolin", microbiology.RxCefazolin),
	})

	if result.Status != StatusInadequate {
		t.Fatalf("expected inadequate, got %s", result.Status)
	}
	if len(result.MissingCoverage) == 0 || len(result.MissingCoverage) > 3 {
		t.Fatalf("expected 1-3 suggested alternatives, got %v", result.MissingCoverage)
	}
}

func TestAssessEmptyRegimen(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())

	result := assessor.Assess(testPatient(), mrsaCulture(), nil)

	if result.Status != StatusInadequate {
		t.Fatalf("expected inadequate for empty regimen, got %s", result.Status)
	}
	want := []string{"vancomycin", "linezolid", "daptomycin"}
	if !reflect.DeepEqual(result.MissingCoverage, want) {
		t.Fatalf("expected deterministic catalog-order suggestions %v, got %v", want, result.MissingCoverage)
	}
}

func TestAssessPseudomonas(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())
	culture := models.CultureResult{FHIRID: "cx-2", Organism: "Pseudomonas aeruginosa"}

	adequate := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("cefepime", microbiology.RxCefepime),
	})
	if adequate.Status != StatusAdequate {
		t.Fatalf("cefepime should cover Pseudomonas, got %s", adequate.Status)
	}

	inadequate := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("ceftriaxone", microbiology.RxCeftriaxone),
	})
	if inadequate.Status != StatusInadequate {
		t.Fatalf("ceftriaxone must not cover Pseudomonas, got %s", inadequate.Status)
	}
}

func TestAssessVRE(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())
	culture := models.CultureResult{FHIRID: "cx-3", Organism: "Enterococcus faecium, vancomycin resistant"}

	vanc := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("vancomycin", microbiology.RxVancomycin),
	})
	if vanc.Status != StatusInadequate {
		t.Fatalf("vancomycin must be inadequate for VRE, got %s", vanc.Status)
	}

	dapto := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("daptomycin", microbiology.RxDaptomycin),
	})
	if dapto.Status != StatusAdequate {
		t.Fatalf("daptomycin must be adequate for VRE, got %s", dapto.Status)
	}
}

func TestAssessCandida(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())
	culture := models.CultureResult{FHIRID: "cx-4", Organism: "Candida albicans"}

	antifungal := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("micafungin", microbiology.RxMicafungin),
	})
	if antifungal.Status != StatusAdequate {
		t.Fatalf("micafungin must be adequate for Candida, got %s", antifungal.Status)
	}

	// Broad antibacterials alone never treat candidemia.
	antibacterials := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("vancomycin", microbiology.RxVancomycin),
		antibiotic("cefepime", microbiology.RxCefepime),
	})
	if antibacterials.Status != StatusInadequate {
		t.Fatalf("vancomycin+cefepime must be inadequate for Candida, got %s", antibacterials.Status)
	}
}

func TestAssessUnknownOrganism(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())
	culture := models.CultureResult{FHIRID: "cx-5", Organism: "Rare unclassified organism"}

	result := assessor.Assess(testPatient(), culture, []models.Antibiotic{
		antibiotic("vancomycin", microbiology.RxVancomycin),
	})

	if result.Status != StatusUnknown {
		t.Fatalf("unidentifiable organism must yield unknown, got %s", result.Status)
	}
	if len(result.MissingCoverage) != 0 {
		t.Fatal("unknown assessment must not list missing coverage")
	}
}

func TestAssessNoRuleForCategory(t *testing.T) {
	catalog := microbiology.NewCatalog([]microbiology.CoverageRule{
		{Category: microbiology.CategoryMRSA, Adequate: []string{microbiology.RxVancomycin}, Recommendation: "start vancomycin"},
	}, map[string]string{microbiology.RxVancomycin: "vancomycin"})
	assessor := NewAssessor(catalog)

	culture := models.CultureResult{FHIRID: "cx-6", Organism: "Candida albicans"}
	result := assessor.Assess(testPatient(), culture, nil)

	if result.Status != StatusUnknown {
		t.Fatalf("absent rule must degrade to unknown, got %s", result.Status)
	}
}

func TestAssessIgnoresUncodedOrders(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())

	result := assessor.Assess(testPatient(), mrsaCulture(), []models.Antibiotic{
		antibiotic("vancomycin", ""), // valid name, no RxNorm code
	})

	// An uncoded order cannot satisfy the code-keyed rule path.
	if result.Status != StatusInadequate {
		t.Fatalf("uncoded order must not count as coverage, got %s", result.Status)
	}
	if len(result.Antibiotics) != 1 {
		t.Fatal("uncoded orders must still be carried through for audit")
	}
}

func TestAssessIsIdempotent(t *testing.T) {
	assessor := NewAssessor(microbiology.DefaultCatalog())
	abx := []models.Antibiotic{antibiotic("cefazolin", microbiology.RxCefazolin)}

	first := assessor.Assess(testPatient(), mrsaCulture(), abx)
	second := assessor.Assess(testPatient(), mrsaCulture(), abx)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must yield structurally equal assessments")
	}
}
