package microbiology

import (
	"strings"
)

// organismRules is an ordered list of case-insensitive substring patterns.
// Order encodes clinical precedence: explicit resistance markers match before
// bare species names, because "methicillin susceptible Staphylococcus aureus"
// contains "staphylococcus aureus" and must not fall through to the MRSA
// default. Bare species without stated susceptibility map to the resistant
// category on purpose: when uninformed, assume resistance, never
// susceptibility.
var organismRules = []struct {
	pattern  string
	category OrganismCategory
}{
	// Explicit resistance/susceptibility markers.
	{"mrsa", CategoryMRSA},
	{"methicillin resistant", CategoryMRSA},
	{"methicillin-resistant", CategoryMRSA},
	{"mssa", CategoryMSSA},
	{"methicillin susceptible", CategoryMSSA},
	{"methicillin-susceptible", CategoryMSSA},
	{"vre", CategoryVRE},
	{"vancomycin resistant", CategoryVRE},
	{"vancomycin-resistant", CategoryVRE},
	{"vancomycin susceptible", CategoryVSE},
	{"vancomycin-susceptible", CategoryVSE},

	// Species with a fixed category.
	{"pseudomonas", CategoryPseudomonas},
	{"candida", CategoryCandida},

	// Species defaults absent explicit susceptibility data. Conservative by
	// clinical policy: bare S. aureus is treated as MRSA, bare Enterococcus
	// as VRE, until the lab says otherwise.
	{"staphylococcus aureus", CategoryMRSA},
	{"staph aureus", CategoryMRSA},
	{"enterococcus", CategoryVRE},

	// Gram-negatives commonly susceptible to standard empiric therapy.
	{"escherichia coli", CategoryGramNegSusc},
	{"e. coli", CategoryGramNegSusc},
	{"klebsiella", CategoryGramNegSusc},
	{"proteus", CategoryGramNegSusc},
	{"enterobacter", CategoryGramNegSusc},
	{"serratia", CategoryGramNegSusc},
	{"citrobacter", CategoryGramNegSusc},
}

var pendingMarkers = []string{
	"pending",
	"no growth",
	"in progress",
	"not identified",
}

// Categorize maps a free-text organism name plus an optional gram-stain text
// to exactly one OrganismCategory. It never fails: unidentifiable input
// yields CategoryUnknown, which callers treat as "cannot assess", not as an
// error.
func Categorize(organismText, gramStainText string) OrganismCategory {
	organism := strings.ToLower(strings.TrimSpace(organismText))

	if !isUnidentified(organism) {
		for _, rule := range organismRules {
			if strings.Contains(organism, rule.pattern) {
				return rule.category
			}
		}
		return CategoryUnknown
	}

	// Organism not yet identified: fall back to the preliminary gram stain.
	stain := strings.ToLower(strings.TrimSpace(gramStainText))
	if stain == "" {
		return CategoryUnknown
	}
	switch {
	case strings.Contains(stain, "cluster"):
		return CategoryGPCClusters
	case strings.Contains(stain, "chain"):
		return CategoryGPCChains
	case strings.Contains(stain, "rod"), strings.Contains(stain, "bacilli"):
		return CategoryGNR
	}
	return CategoryUnknown
}

func isUnidentified(organism string) bool {
	if organism == "" {
		return true
	}
	for _, marker := range pendingMarkers {
		if strings.Contains(organism, marker) {
			return true
		}
	}
	return false
}
