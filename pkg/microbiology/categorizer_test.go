package microbiology

import "testing"

func TestCategorizeResistanceMarkers(t *testing.T) {
	cases := map[string]OrganismCategory{
		"MRSA":                                       CategoryMRSA,
		"mrsa":                                       CategoryMRSA,
		"Mrsa - methicillin resistant Staph aureus":  CategoryMRSA,
		"Methicillin-resistant Staphylococcus aureus": CategoryMRSA,
		"Methicillin susceptible Staphylococcus aureus": CategoryMSSA,
		"VRE": CategoryVRE,
		"Enterococcus faecium, vancomycin resistant":   CategoryVRE,
		"Enterococcus faecalis, vancomycin susceptible": CategoryVSE,
	}
	for text, want := range cases {
		if got := Categorize(text, ""); got != want {
			t.Fatalf("Categorize(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestCategorizeDefaultsToResistantWhenUninformed(t *testing.T) {
	if got := Categorize("Staphylococcus aureus", ""); got != CategoryMRSA {
		t.Fatalf("bare S. aureus should default to MRSA, got %s", got)
	}
	if got := Categorize("Enterococcus faecium", ""); got != CategoryVRE {
		t.Fatalf("bare Enterococcus should default to VRE, got %s", got)
	}
}

func TestCategorizeSpecies(t *testing.T) {
	cases := map[string]OrganismCategory{
		"Pseudomonas aeruginosa": CategoryPseudomonas,
		"Candida albicans":       CategoryCandida,
		"Escherichia coli":       CategoryGramNegSusc,
		"Klebsiella pneumoniae":  CategoryGramNegSusc,
		"Proteus mirabilis":      CategoryGramNegSusc,
	}
	for text, want := range cases {
		if got := Categorize(text, ""); got != want {
			t.Fatalf("Categorize(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestCategorizeUnidentified(t *testing.T) {
	if got := Categorize("", ""); got != CategoryUnknown {
		t.Fatalf("empty organism with no stain should be UNKNOWN, got %s", got)
	}
	if got := Categorize("Pending", ""); got != CategoryUnknown {
		t.Fatalf("pending organism with no stain should be UNKNOWN, got %s", got)
	}
	if got := Categorize("Rare unclassified organism", ""); got != CategoryUnknown {
		t.Fatalf("unrecognized organism should be UNKNOWN, got %s", got)
	}
}

func TestCategorizeGramStainFallback(t *testing.T) {
	if got := Categorize("", "Gram positive cocci in clusters"); got != CategoryGPCClusters {
		t.Fatalf("expected GPC_CLUSTERS, got %s", got)
	}
	if got := Categorize("Pending", "Gram positive cocci in chains"); got != CategoryGPCChains {
		t.Fatalf("expected GPC_CHAINS, got %s", got)
	}
	if got := Categorize("No growth to date", "Gram negative rods"); got != CategoryGNR {
		t.Fatalf("expected GNR, got %s", got)
	}
}

func TestCategorizeIdentifiedOrganismIgnoresStain(t *testing.T) {
	// Once the organism is identified the gram stain is stale information.
	if got := Categorize("Pseudomonas aeruginosa", "Gram positive cocci in clusters"); got != CategoryPseudomonas {
		t.Fatalf("identified organism should win over stain, got %s", got)
	}
}
