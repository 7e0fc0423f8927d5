package fhir

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stewardrx/platform/pkg/common/models"
)

const rxnormSystem = "http://www.nlm.nih.gov/research/umls/rxnorm"

// Transformer normalizes raw FHIR resources into the plain records the
// assessment core consumes. It is forgiving by design: optional fields that
// are missing or malformed are dropped, never fatal, because the core
// degrades to an unknown verdict on missing data.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

func (t *Transformer) Patient(data map[string]interface{}) models.Patient {
	patient := models.Patient{
		FHIRID: getString(data["id"]),
	}

	if names, ok := data["name"].([]interface{}); ok && len(names) > 0 {
		name := extractMap(names[0])
		given := ""
		if givens, ok := name["given"].([]interface{}); ok && len(givens) > 0 {
			given = getString(givens[0])
		}
		patient.Name = strings.TrimSpace(given + " " + getString(name["family"]))
	}

	if identifiers, ok := data["identifier"].([]interface{}); ok {
		for _, raw := range identifiers {
			ident := extractMap(raw)
			typeText := strings.ToLower(getString(extractMap(ident["type"])["text"]))
			if strings.Contains(typeText, "medical record") || strings.Contains(typeText, "mrn") {
				patient.MRN = getString(ident["value"])
				break
			}
		}
	}

	return patient
}

// Culture normalizes a microbiology DiagnosticReport. Organism, gram stain
// and susceptibility rows ride as contained Observations; a report without
// them is a pending culture the core will classify as unknown.
func (t *Transformer) Culture(data map[string]interface{}) (models.CultureResult, error) {
	if data == nil {
		return models.CultureResult{}, errors.New("nil diagnostic report")
	}

	id := getString(data["id"])
	if id == "" {
		return models.CultureResult{}, errors.New("diagnostic report missing id")
	}

	culture := models.CultureResult{
		FHIRID:    id,
		PatientID: referenceID(data["subject"]),
		Specimen:  getString(extractMap(data["specimen"])["display"]),
	}

	if ts := getString(data["effectiveDateTime"]); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			culture.CollectedAt = parsed
		}
	}

	if conclusion := getString(data["conclusion"]); conclusion != "" {
		culture.Organism = conclusion
	}

	contained, _ := data["contained"].([]interface{})
	for _, raw := range contained {
		obs := extractMap(raw)
		if getString(obs["resourceType"]) != "Observation" {
			continue
		}
		codeText := strings.ToLower(getString(extractMap(obs["code"])["text"]))
		switch {
		case strings.Contains(codeText, "organism"):
			if value := observationValue(obs); value != "" {
				culture.Organism = value
			}
		case strings.Contains(codeText, "gram stain"):
			culture.GramStain = observationValue(obs)
		default:
			if sus, ok := susceptibilityRow(culture.Organism, obs); ok {
				culture.Susceptibilities = append(culture.Susceptibilities, sus)
			}
		}
	}

	return culture, nil
}

// Antibiotic normalizes an active MedicationRequest. Orders without an
// RxNorm coding keep a nil code; the caller decides which matching paths
// they participate in.
func (t *Transformer) Antibiotic(data map[string]interface{}) (models.Antibiotic, error) {
	if data == nil {
		return models.Antibiotic{}, errors.New("nil medication request")
	}

	id := getString(data["id"])
	if id == "" {
		return models.Antibiotic{}, errors.New("medication request missing id")
	}

	medication := extractMap(data["medicationCodeableConcept"])
	ab := models.Antibiotic{
		FHIRID: id,
		Name:   getString(medication["text"]),
	}

	if codings, ok := medication["coding"].([]interface{}); ok {
		for _, raw := range codings {
			coding := extractMap(raw)
			if getString(coding["system"]) != rxnormSystem {
				continue
			}
			if code := getString(coding["code"]); code != "" {
				ab.RxNormCode = &code
			}
			if ab.Name == "" {
				ab.Name = getString(coding["display"])
			}
			break
		}
	}

	if ab.Name == "" {
		return models.Antibiotic{}, fmt.Errorf("medication request %s has no display name", id)
	}

	if dosages, ok := data["dosageInstruction"].([]interface{}); ok && len(dosages) > 0 {
		dosage := extractMap(dosages[0])
		ab.Route = getString(extractMap(dosage["route"])["text"])
		ab.Dose = getString(dosage["text"])
	}

	return ab, nil
}

// susceptibilityRow interprets an Observation as one row of a susceptibility
// panel: antibiotic name on the code, S/I/R on the interpretation.
func susceptibilityRow(organism string, obs map[string]interface{}) (models.Susceptibility, bool) {
	antibiotic := getString(extractMap(obs["code"])["text"])
	if antibiotic == "" {
		return models.Susceptibility{}, false
	}

	var code string
	switch interp := obs["interpretation"].(type) {
	case []interface{}:
		if len(interp) > 0 {
			code = interpretationCode(extractMap(interp[0]))
		}
	case map[string]interface{}:
		code = interpretationCode(interp)
	}

	switch models.Interpretation(code) {
	case models.Susceptible, models.Intermediate, models.Resistant:
		return models.Susceptibility{
			Organism:       organism,
			Antibiotic:     antibiotic,
			Interpretation: models.Interpretation(code),
		}, true
	}
	return models.Susceptibility{}, false
}

func interpretationCode(interp map[string]interface{}) string {
	if codings, ok := interp["coding"].([]interface{}); ok && len(codings) > 0 {
		if code := getString(extractMap(codings[0])["code"]); code != "" {
			return strings.ToUpper(code)
		}
	}
	return strings.ToUpper(getString(interp["text"]))
}

func observationValue(obs map[string]interface{}) string {
	if value := getString(obs["valueString"]); value != "" {
		return value
	}
	return getString(extractMap(obs["valueCodeableConcept"])["text"])
}

func referenceID(value interface{}) string {
	ref := getString(extractMap(value)["reference"])
	if ref == "" {
		return ""
	}
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

func extractMap(value interface{}) map[string]interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func getString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}
