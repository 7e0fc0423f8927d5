package microbiology

import (
	"fmt"
)

// RxNorm ingredient codes for the antibiotics the catalog rules on. The
// clinical rule tables are compiled in deliberately: updating them means
// shipping a new build, which keeps the decision logic auditable.
const (
	RxVancomycin    = "11124"
	RxLinezolid     = "190376"
	RxDaptomycin    = "22299"
	RxCeftaroline   = "1163472"
	RxCefazolin     = "2180"
	RxNafcillin     = "7233"
	RxOxacillin     = "7773"
	RxAmpicillin    = "733"
	RxCefepime      = "20481"
	RxCeftriaxone   = "2193"
	RxPipTazo       = "33533"
	RxMeropenem     = "29561"
	RxCiprofloxacin = "2551"
	RxLevofloxacin  = "82122"
	RxAztreonam     = "1272"
	RxTobramycin    = "10627"
	RxFluconazole   = "4450"
	RxMicafungin    = "283742"
	RxCaspofungin   = "259319"
	RxAmphotericinB = "732"
)

// CoverageRule states, for one organism category, which antibiotics are
// considered adequate, which are explicitly wrong choices worth calling out,
// and the template recommendation shown when coverage is missing. Slice
// order is the deterministic reporting order for suggested alternatives.
type CoverageRule struct {
	Category       OrganismCategory
	Adequate       []string
	Inadequate     []string
	Recommendation string
}

// Catalog is the static clinical knowledge base: coverage rules per organism
// category plus the RxNorm display-name map. It is constructed once at
// process start and never mutated, so concurrent lookups need no locking.
type Catalog struct {
	rules map[OrganismCategory]CoverageRule
	names map[string]string

	adequateSets   map[OrganismCategory]map[string]struct{}
	inadequateSets map[OrganismCategory]map[string]struct{}
}

func NewCatalog(rules []CoverageRule, names map[string]string) Catalog {
	c := Catalog{
		rules:          make(map[OrganismCategory]CoverageRule, len(rules)),
		names:          names,
		adequateSets:   make(map[OrganismCategory]map[string]struct{}, len(rules)),
		inadequateSets: make(map[OrganismCategory]map[string]struct{}, len(rules)),
	}
	for _, rule := range rules {
		c.rules[rule.Category] = rule
		c.adequateSets[rule.Category] = codeSet(rule.Adequate)
		c.inadequateSets[rule.Category] = codeSet(rule.Inadequate)
	}
	return c
}

// Rule returns the coverage rule for a category. The second return is false
// for categories intentionally left unmodeled; callers treat that as an
// unknown verdict, not an error.
func (c Catalog) Rule(category OrganismCategory) (CoverageRule, bool) {
	rule, ok := c.rules[category]
	return rule, ok
}

// IsAdequate reports whether the RxNorm code is in the category's adequate
// set.
func (c Catalog) IsAdequate(category OrganismCategory, code string) bool {
	_, ok := c.adequateSets[category][code]
	return ok
}

// IsInadequate reports whether the RxNorm code is in the category's
// known-inadequate set.
func (c Catalog) IsInadequate(category OrganismCategory, code string) bool {
	_, ok := c.inadequateSets[category][code]
	return ok
}

// AntibioticDisplayName resolves an RxNorm code to a display name. Unmapped
// codes fall back to the code itself so rendering never fails.
func (c Catalog) AntibioticDisplayName(code string) string {
	if name, ok := c.names[code]; ok && name != "" {
		return name
	}
	return code
}

// Validate is the startup consistency check: every code referenced by any
// rule must resolve to a real display name.
func (c Catalog) Validate() error {
	for category, rule := range c.rules {
		for _, code := range append(append([]string{}, rule.Adequate...), rule.Inadequate...) {
			name, ok := c.names[code]
			if !ok || name == "" {
				return fmt.Errorf("catalog rule %s references unmapped antibiotic code %s", category, code)
			}
		}
	}
	return nil
}

func codeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// DefaultCatalog returns the compiled-in stewardship knowledge base.
func DefaultCatalog() Catalog {
	return NewCatalog(defaultRules(), defaultNames())
}

func defaultRules() []CoverageRule {
	return []CoverageRule{
		{
			Category:       CategoryMRSA,
			Adequate:       []string{RxVancomycin, RxLinezolid, RxDaptomycin, RxCeftaroline},
			Inadequate:     []string{RxCefazolin, RxNafcillin, RxOxacillin, RxCeftriaxone},
			Recommendation: "MRSA is not covered by standard beta-lactams. Start vancomycin, linezolid, or daptomycin.",
		},
		{
			Category:       CategoryMSSA,
			Adequate:       []string{RxCefazolin, RxNafcillin, RxOxacillin, RxVancomycin},
			Inadequate:     nil,
			Recommendation: "MSSA is best treated with an anti-staphylococcal beta-lactam such as cefazolin or nafcillin.",
		},
		{
			Category:       CategoryVRE,
			Adequate:       []string{RxDaptomycin, RxLinezolid},
			Inadequate:     []string{RxVancomycin, RxAmpicillin},
			Recommendation: "VRE is resistant to vancomycin. Start daptomycin or linezolid.",
		},
		{
			Category:       CategoryVSE,
			Adequate:       []string{RxAmpicillin, RxVancomycin},
			Inadequate:     nil,
			Recommendation: "Vancomycin-susceptible Enterococcus is treated with ampicillin or vancomycin.",
		},
		{
			Category:       CategoryPseudomonas,
			Adequate:       []string{RxCefepime, RxPipTazo, RxMeropenem, RxCiprofloxacin, RxLevofloxacin, RxAztreonam, RxTobramycin},
			Inadequate:     []string{RxCeftriaxone, RxCefazolin, RxAmpicillin},
			Recommendation: "Pseudomonas requires an anti-pseudomonal agent such as cefepime, piperacillin-tazobactam, or meropenem.",
		},
		{
			Category:       CategoryCandida,
			Adequate:       []string{RxMicafungin, RxCaspofungin, RxFluconazole, RxAmphotericinB},
			Inadequate:     []string{RxVancomycin, RxCefepime, RxPipTazo, RxMeropenem},
			Recommendation: "Candidemia is not treated by antibacterials. Start an echinocandin such as micafungin.",
		},
		{
			Category:       CategoryGramNegSusc,
			Adequate:       []string{RxCeftriaxone, RxCefepime, RxPipTazo, RxMeropenem, RxCiprofloxacin, RxLevofloxacin},
			Inadequate:     []string{RxVancomycin, RxLinezolid, RxDaptomycin},
			Recommendation: "Gram-negative organism requires gram-negative coverage such as ceftriaxone or cefepime.",
		},
		{
			Category:       CategoryGPCClusters,
			Adequate:       []string{RxVancomycin, RxLinezolid, RxDaptomycin},
			Inadequate:     nil,
			Recommendation: "Gram-positive cocci in clusters suggest Staphylococcus. Start empiric vancomycin pending identification.",
		},
		{
			Category:       CategoryGPCChains,
			Adequate:       []string{RxVancomycin, RxAmpicillin, RxLinezolid, RxDaptomycin},
			Inadequate:     nil,
			Recommendation: "Gram-positive cocci in chains suggest Streptococcus or Enterococcus. Start empiric vancomycin pending identification.",
		},
		{
			Category:       CategoryGNR,
			Adequate:       []string{RxCefepime, RxPipTazo, RxMeropenem},
			Inadequate:     []string{RxVancomycin},
			Recommendation: "Gram-negative rods require empiric gram-negative coverage such as cefepime or piperacillin-tazobactam.",
		},
	}
}

func defaultNames() map[string]string {
	return map[string]string{
		RxVancomycin:    "vancomycin",
		RxLinezolid:     "linezolid",
		RxDaptomycin:    "daptomycin",
		RxCeftaroline:   "ceftaroline",
		RxCefazolin:     "cefazolin",
		RxNafcillin:     "nafcillin",
		RxOxacillin:     "oxacillin",
		RxAmpicillin:    "ampicillin",
		RxCefepime:      "cefepime",
		RxCeftriaxone:   "ceftriaxone",
		RxPipTazo:       "piperacillin-tazobactam",
		RxMeropenem:     "meropenem",
		RxCiprofloxacin: "ciprofloxacin",
		RxLevofloxacin:  "levofloxacin",
		RxAztreonam:     "aztreonam",
		RxTobramycin:    "tobramycin",
		RxFluconazole:   "fluconazole",
		RxMicafungin:    "micafungin",
		RxCaspofungin:   "caspofungin",
		RxAmphotericinB: "amphotericin B",
	}
}
