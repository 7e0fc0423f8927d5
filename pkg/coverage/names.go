package coverage

import (
	"strings"
)

// aliasGroups lists the lab-reported spellings that refer to the same agent.
// One medication order may correspond to several panel labels
// ("pip-tazo" vs "piperacillin/tazobactam"); grouping is resolved after
// punctuation normalization, so only genuinely distinct spellings need rows.
var aliasGroups = [][]string{
	{"piperacillin-tazobactam", "pip-tazo", "zosyn"},
	{"trimethoprim-sulfamethoxazole", "tmp-smx", "bactrim", "co-trimoxazole", "sulfamethoxazole-trimethoprim"},
	{"vancomycin", "vanc"},
	{"ampicillin-sulbactam", "unasyn", "amp-sulbactam"},
	{"amoxicillin-clavulanate", "augmentin"},
	{"cefepime", "maxipime"},
	{"ceftriaxone", "rocephin"},
	{"meropenem", "merrem"},
	{"linezolid", "zyvox"},
	{"daptomycin", "cubicin"},
	{"ciprofloxacin", "cipro"},
	{"levofloxacin", "levaquin"},
	{"micafungin", "mycamine"},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]int {
	index := make(map[string]int)
	for group, aliases := range aliasGroups {
		for _, alias := range aliases {
			index[normalizeName(alias)] = group
		}
	}
	return index
}

// normalizeName lowercases and collapses punctuation so that
// "Piperacillin/Tazobactam", "piperacillin-tazobactam" and
// "piperacillin tazobactam" all compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// sameAgent reports whether an ordered medication name and a lab panel label
// refer to the same antibiotic.
func sameAgent(orderName, panelName string) bool {
	a := normalizeName(orderName)
	b := normalizeName(panelName)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ga, okA := aliasIndex[a]
	gb, okB := aliasIndex[b]
	return okA && okB && ga == gb
}
