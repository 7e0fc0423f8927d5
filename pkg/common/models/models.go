package models

import (
	"time"
)

// FHIR snapshot models. These are transient value objects built once per
// assessment run from the FHIR/lab collaborators and discarded after the
// resulting alert is persisted.

type Patient struct {
	FHIRID   string `json:"fhir_id"`
	MRN      string `json:"mrn,omitempty"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Interpretation is the laboratory susceptibility classification of an
// organism against a tested antibiotic.
type Interpretation string

const (
	Susceptible  Interpretation = "S"
	Intermediate Interpretation = "I"
	Resistant    Interpretation = "R"
)

type Susceptibility struct {
	Organism       string         `json:"organism"`
	Antibiotic     string         `json:"antibiotic"`
	Interpretation Interpretation `json:"interpretation"`
}

// CultureResult is a microbiology result. Organism may be empty while the
// culture is still pending identification; GramStain may carry a preliminary
// signal in that case. Susceptibilities is nil until the lab finalizes the
// panel.
type CultureResult struct {
	FHIRID           string           `json:"fhir_id"`
	PatientID        string           `json:"patient_id"`
	Organism         string           `json:"organism"`
	GramStain        string           `json:"gram_stain,omitempty"`
	Specimen         string           `json:"specimen,omitempty"`
	CollectedAt      time.Time        `json:"collected_at"`
	Susceptibilities []Susceptibility `json:"susceptibilities,omitempty"`
}

// Antibiotic is an active medication order at assessment time. RxNormCode is
// nil for orders the EHR could not code; such orders are excluded from
// code-keyed rule matching but still carried for display and for name-based
// susceptibility matching.
type Antibiotic struct {
	FHIRID     string  `json:"fhir_id"`
	Name       string  `json:"name"`
	RxNormCode *string `json:"rxnorm_code,omitempty"`
	Route      string  `json:"route,omitempty"`
	Dose       string  `json:"dose,omitempty"`
}

// Event bus envelope.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // culture, alert, labfeed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// CultureEvent is the payload carried on the culture topic: everything the
// assessment worker needs for one (patient, culture) evaluation.
type CultureEvent struct {
	Patient     Patient       `json:"patient"`
	Culture     CultureResult `json:"culture"`
	Antibiotics []Antibiotic  `json:"antibiotics"`
}

// AlertEvent is the payload carried on the alert topic after the worker
// persists an alert.
type AlertEvent struct {
	AlertID   string                 `json:"alert_id"`
	PatientID string                 `json:"patient_id"`
	Patient   string                 `json:"patient"`
	Location  string                 `json:"location,omitempty"`
	CultureID string                 `json:"culture_id"`
	Severity  string                 `json:"severity"`
	Category  string                 `json:"category"`
	Summary   string                 `json:"summary"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Lab feed intake DTOs.
type LabResultRequest struct {
	Source    string                 `json:"source"` // lab, hospital, reference-lab
	Format    string                 `json:"format"` // fhir, hl7, json
	Data      map[string]interface{} `json:"data"`
	PatientID string                 `json:"patient_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

type LabResultResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
