package coverage

import (
	"fmt"
	"strings"

	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/microbiology"
)

// CoverageStatus is the verdict of a coverage assessment. StatusUnknown is a
// valid terminal state meaning "no verdict possible"; the alerting
// collaborator must not alert on it.
type CoverageStatus string

const (
	StatusAdequate   CoverageStatus = "adequate"
	StatusInadequate CoverageStatus = "inadequate"
	StatusUnknown    CoverageStatus = "unknown"
)

// CoverageAssessment is the assessor's output: a value object constructed
// once per call and never mutated after return.
type CoverageAssessment struct {
	Patient         models.Patient                `json:"patient"`
	Culture         models.CultureResult          `json:"culture"`
	Antibiotics     []models.Antibiotic           `json:"antibiotics"`
	Category        microbiology.OrganismCategory `json:"category"`
	Status          CoverageStatus                `json:"status"`
	Recommendation  string                        `json:"recommendation"`
	MissingCoverage []string                      `json:"missing_coverage,omitempty"`
}

// maxSuggestions caps the alternatives listed when coverage is missing.
const maxSuggestions = 3

// Assessor evaluates a patient's antibiotic regimen against the static rule
// catalog for the organism grown in a culture. Pure and stateless per call;
// safe for unlimited concurrent use.
type Assessor struct {
	catalog microbiology.Catalog
}

func NewAssessor(catalog microbiology.Catalog) *Assessor {
	return &Assessor{catalog: catalog}
}

// Assess produces a coverage verdict for one (patient, culture) pair. It
// never returns an error: missing data degrades to StatusUnknown and
// antibiotics without an RxNorm code are excluded from matching but carried
// through on the assessment for audit.
func (a *Assessor) Assess(patient models.Patient, culture models.CultureResult, antibiotics []models.Antibiotic) CoverageAssessment {
	assessment := CoverageAssessment{
		Patient:     patient,
		Culture:     culture,
		Antibiotics: antibiotics,
	}

	category := microbiology.Categorize(culture.Organism, culture.GramStain)
	assessment.Category = category

	if category == microbiology.CategoryUnknown {
		assessment.Status = StatusUnknown
		assessment.Recommendation = "Organism not yet identified; coverage cannot be assessed."
		return assessment
	}

	rule, ok := a.catalog.Rule(category)
	if !ok {
		assessment.Status = StatusUnknown
		assessment.Recommendation = fmt.Sprintf("No coverage rule defined for %s.", category)
		return assessment
	}

	currentCodes := codedAntibiotics(antibiotics)

	if len(currentCodes) == 0 {
		assessment.Status = StatusInadequate
		assessment.Recommendation = rule.Recommendation
		assessment.MissingCoverage = a.suggestions(rule)
		return assessment
	}

	// First adequate match short-circuits.
	var covering []string
	for _, code := range rule.Adequate {
		if _, on := currentCodes[code]; on {
			covering = append(covering, a.catalog.AntibioticDisplayName(code))
		}
	}
	if len(covering) > 0 {
		assessment.Status = StatusAdequate
		assessment.Recommendation = fmt.Sprintf("Current regimen (%s) provides adequate coverage for %s.",
			strings.Join(covering, ", "), category)
		return assessment
	}

	for _, code := range rule.Inadequate {
		if _, on := currentCodes[code]; on {
			assessment.Status = StatusInadequate
			assessment.Recommendation = fmt.Sprintf("%s does not reliably cover %s. %s",
				a.catalog.AntibioticDisplayName(code), category, rule.Recommendation)
			assessment.MissingCoverage = a.suggestions(rule)
			return assessment
		}
	}

	// Neither known-adequate nor known-inadequate: fail conservatively
	// toward alerting.
	assessment.Status = StatusInadequate
	assessment.Recommendation = rule.Recommendation
	assessment.MissingCoverage = a.suggestions(rule)
	return assessment
}

// suggestions returns up to maxSuggestions adequate antibiotic names in
// catalog declaration order, which keeps reporting deterministic.
func (a *Assessor) suggestions(rule microbiology.CoverageRule) []string {
	limit := maxSuggestions
	if len(rule.Adequate) < limit {
		limit = len(rule.Adequate)
	}
	names := make([]string, 0, limit)
	for _, code := range rule.Adequate[:limit] {
		names = append(names, a.catalog.AntibioticDisplayName(code))
	}
	return names
}

func codedAntibiotics(antibiotics []models.Antibiotic) map[string]models.Antibiotic {
	coded := make(map[string]models.Antibiotic, len(antibiotics))
	for _, ab := range antibiotics {
		if ab.RxNormCode != nil && *ab.RxNormCode != "" {
			coded[*ab.RxNormCode] = ab
		}
	}
	return coded
}
