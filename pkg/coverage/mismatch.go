package coverage

import (
	"fmt"
	"strings"

	"github.com/stewardrx/platform/pkg/common/models"
)

// MismatchType classifies one drug-bug conflict.
type MismatchType string

const (
	MismatchResistant    MismatchType = "RESISTANT"
	MismatchIntermediate MismatchType = "INTERMEDIATE"
	MismatchNoCoverage   MismatchType = "NO_COVERAGE"
)

// Mismatch is one (antibiotic, susceptibility) conflict. For NO_COVERAGE the
// Antibiotic field is zero-valued and Susceptibility names a susceptible
// option that was available but not chosen.
type Mismatch struct {
	Type           MismatchType          `json:"mismatch_type"`
	Antibiotic     models.Antibiotic     `json:"antibiotic,omitempty"`
	Susceptibility models.Susceptibility `json:"susceptibility"`
}

// MismatchAssessment is the susceptibility-aware counterpart of
// CoverageAssessment.
type MismatchAssessment struct {
	Patient        models.Patient       `json:"patient"`
	Culture        models.CultureResult `json:"culture"`
	Antibiotics    []models.Antibiotic  `json:"antibiotics"`
	Mismatches     []Mismatch           `json:"mismatches,omitempty"`
	Recommendation string               `json:"recommendation"`
}

func (a MismatchAssessment) HasMismatches() bool {
	return len(a.Mismatches) > 0
}

// ShouldAlert is the sole gate the scheduling collaborator uses to decide
// whether to create an alert record. Deterministic and side-effect-free.
func ShouldAlert(a MismatchAssessment) bool {
	return a.HasMismatches()
}

// Matcher is the drug-bug mismatch matcher: it evaluates explicit lab
// susceptibility interpretations instead of static category rules. Matching
// is name-driven, so orders without an RxNorm code still participate.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// CheckCoverage returns one Mismatch per (antibiotic, susceptibility)
// conflict. A culture without susceptibility data yields an empty result:
// nothing can be assessed, mirroring the categorizer's unknown policy.
func (m *Matcher) CheckCoverage(culture models.CultureResult, antibiotics []models.Antibiotic) []Mismatch {
	if len(culture.Susceptibilities) == 0 {
		return nil
	}

	var mismatches []Mismatch
	onPanel := false

	for _, ab := range antibiotics {
		for _, sus := range culture.Susceptibilities {
			if !organismMatches(culture.Organism, sus.Organism) {
				continue
			}
			if !sameAgent(ab.Name, sus.Antibiotic) {
				continue
			}
			onPanel = true
			switch sus.Interpretation {
			case models.Resistant:
				mismatches = append(mismatches, Mismatch{Type: MismatchResistant, Antibiotic: ab, Susceptibility: sus})
			case models.Intermediate:
				mismatches = append(mismatches, Mismatch{Type: MismatchIntermediate, Antibiotic: ab, Susceptibility: sus})
			}
		}
	}

	// Nothing the patient is on was tested at all, yet an effective option
	// existed and was not chosen.
	if !onPanel {
		if sus, ok := firstSusceptible(culture); ok {
			mismatches = append(mismatches, Mismatch{Type: MismatchNoCoverage, Susceptibility: sus})
		}
	}

	return mismatches
}

// HasAnyEffectiveCoverage reports whether at least one current antibiotic
// matches a Susceptible panel entry. Used as a cross-check before alerting:
// a single resistant agent is not a coverage gap when another current agent
// tested susceptible.
func (m *Matcher) HasAnyEffectiveCoverage(culture models.CultureResult, antibiotics []models.Antibiotic) bool {
	for _, ab := range antibiotics {
		for _, sus := range culture.Susceptibilities {
			if !organismMatches(culture.Organism, sus.Organism) {
				continue
			}
			if sus.Interpretation == models.Susceptible && sameAgent(ab.Name, sus.Antibiotic) {
				return true
			}
		}
	}
	return false
}

// AssessMismatch orchestrates CheckCoverage and builds the human-readable
// recommendation, naming susceptible alternatives when resistant conflicts
// exist.
func (m *Matcher) AssessMismatch(patient models.Patient, culture models.CultureResult, antibiotics []models.Antibiotic) MismatchAssessment {
	assessment := MismatchAssessment{
		Patient:     patient,
		Culture:     culture,
		Antibiotics: antibiotics,
		Mismatches:  m.CheckCoverage(culture, antibiotics),
	}

	if !assessment.HasMismatches() {
		if len(culture.Susceptibilities) == 0 {
			assessment.Recommendation = "No susceptibility data available; mismatch assessment not possible."
		} else {
			assessment.Recommendation = "No drug-bug mismatches identified for the current regimen."
		}
		return assessment
	}

	alternatives := susceptibleAlternatives(culture)

	var parts []string
	for _, mm := range assessment.Mismatches {
		switch mm.Type {
		case MismatchResistant:
			parts = append(parts, fmt.Sprintf("%s tested resistant against %s", mm.Antibiotic.Name, mm.Susceptibility.Organism))
		case MismatchIntermediate:
			parts = append(parts, fmt.Sprintf("%s tested intermediate against %s", mm.Antibiotic.Name, mm.Susceptibility.Organism))
		case MismatchNoCoverage:
			parts = append(parts, "no current antibiotic appears on the susceptibility panel")
		}
	}
	rec := strings.Join(parts, "; ") + "."
	if len(alternatives) > 0 {
		rec += fmt.Sprintf(" Susceptible alternatives: %s.", strings.Join(alternatives, ", "))
	}
	if m.HasAnyEffectiveCoverage(culture, antibiotics) {
		rec += " Note: another current agent tested susceptible."
	}
	assessment.Recommendation = rec

	return assessment
}

func firstSusceptible(culture models.CultureResult) (models.Susceptibility, bool) {
	for _, sus := range culture.Susceptibilities {
		if !organismMatches(culture.Organism, sus.Organism) {
			continue
		}
		if sus.Interpretation == models.Susceptible {
			return sus, true
		}
	}
	return models.Susceptibility{}, false
}

func susceptibleAlternatives(culture models.CultureResult) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, sus := range culture.Susceptibilities {
		if !organismMatches(culture.Organism, sus.Organism) {
			continue
		}
		if sus.Interpretation != models.Susceptible {
			continue
		}
		key := normalizeName(sus.Antibiotic)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, sus.Antibiotic)
	}
	return names
}

// organismMatches is lenient: panel rows without an organism label belong to
// the culture's single isolate.
func organismMatches(cultureOrganism, panelOrganism string) bool {
	if cultureOrganism == "" || panelOrganism == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(cultureOrganism), strings.TrimSpace(panelOrganism))
}
