package stewardship

import (
	"testing"
	"time"

	"github.com/stewardrx/platform/pkg/alerts"
	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/microbiology"
	"github.com/stewardrx/platform/pkg/surveillance"
)

func TestDecodeCultureEvent(t *testing.T) {
	event := models.Event{
		ID:   "evt-1",
		Type: "culture",
		Data: map[string]interface{}{
			"patient": map[string]interface{}{
				"fhir_id": "pat-1",
				"name":    "Jordan Blake",
			},
			"culture": map[string]interface{}{
				"fhir_id":    "cx-1",
				"patient_id": "pat-1",
				"organism":   "MRSA",
			},
			"antibiotics": []interface{}{
				map[string]interface{}{"fhir_id": "rx-1", "name": "Vancomycin", "rxnorm_code": "11124"},
			},
		},
	}

	decoded, err := decodeCultureEvent(event)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Culture.FHIRID != "cx-1" {
		t.Fatalf("expected culture cx-1, got %q", decoded.Culture.FHIRID)
	}
	if decoded.Patient.Name != "Jordan Blake" {
		t.Fatalf("expected patient name, got %q", decoded.Patient.Name)
	}
	if len(decoded.Antibiotics) != 1 || *decoded.Antibiotics[0].RxNormCode != "11124" {
		t.Fatalf("expected one coded antibiotic, got %+v", decoded.Antibiotics)
	}
}

func TestDecodeCultureEventMissingCulture(t *testing.T) {
	event := models.Event{
		ID:   "evt-2",
		Type: "culture",
		Data: map[string]interface{}{
			"patient": map[string]interface{}{"fhir_id": "pat-1"},
		},
	}

	if _, err := decodeCultureEvent(event); err == nil {
		t.Fatal("expected error for event without a culture id")
	}
}

func TestClusterAlertIdentityIsStable(t *testing.T) {
	firstSeen := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	cluster := surveillance.Cluster{
		Category:  microbiology.CategoryVRE,
		Location:  "MICU",
		Cultures:  []string{"cx-1", "cx-2", "cx-3"},
		Patients:  []string{"pat-1", "pat-2", "pat-3"},
		FirstSeen: firstSeen,
		LastSeen:  firstSeen.Add(48 * time.Hour),
	}

	first := clusterAlert(cluster)
	second := clusterAlert(cluster)

	if first.CultureID != second.CultureID {
		t.Fatalf("cluster identity changed between builds: %q vs %q", first.CultureID, second.CultureID)
	}
	if first.Category != alerts.CategoryOutbreak {
		t.Fatalf("expected outbreak category, got %q", first.Category)
	}
	if first.Severity != alerts.SeverityWarning {
		t.Fatalf("expected warning severity, got %q", first.Severity)
	}
}

func TestTrimIsolatesDropsStaleEntries(t *testing.T) {
	now := time.Now()
	isolates := []surveillance.Isolate{
		{Culture: models.CultureResult{FHIRID: "old", CollectedAt: now.Add(-30 * 24 * time.Hour)}},
		{Culture: models.CultureResult{FHIRID: "recent", CollectedAt: now.Add(-2 * 24 * time.Hour)}},
	}

	kept := trimIsolates(isolates, 14*24*time.Hour)
	if len(kept) != 1 || kept[0].Culture.FHIRID != "recent" {
		t.Fatalf("expected only the recent isolate, got %+v", kept)
	}
}
