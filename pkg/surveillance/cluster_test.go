package surveillance

import (
	"testing"
	"time"

	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/microbiology"
)

func isolate(cultureID, patientID, organism, location string, daysAgo int) Isolate {
	return Isolate{
		Location: location,
		Culture: models.CultureResult{
			FHIRID:      cultureID,
			PatientID:   patientID,
			Organism:    organism,
			CollectedAt: time.Now().UTC().AddDate(0, 0, -daysAgo),
		},
	}
}

func TestDetectFlagsSameUnitCluster(t *testing.T) {
	detector := NewDetector(14*24*time.Hour, 3)

	clusters := detector.Detect([]Isolate{
		isolate("cx-1", "pat-1", "MRSA", "ICU-4", 1),
		isolate("cx-2", "pat-2", "MRSA", "ICU-4", 3),
		isolate("cx-3", "pat-3", "Methicillin resistant Staphylococcus aureus", "ICU-4", 6),
		isolate("cx-4", "pat-4", "MRSA", "MED-2", 2), // different unit
	})

	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(clusters))
	}
	cluster := clusters[0]
	if cluster.Category != microbiology.CategoryMRSA || cluster.Location != "ICU-4" {
		t.Fatalf("unexpected cluster %+v", cluster)
	}
	if len(cluster.Patients) != 3 {
		t.Fatalf("expected 3 distinct patients, got %v", cluster.Patients)
	}
}

func TestDetectCountsDistinctPatientsOnly(t *testing.T) {
	detector := NewDetector(14*24*time.Hour, 3)

	// Three cultures but only two patients.
	clusters := detector.Detect([]Isolate{
		isolate("cx-1", "pat-1", "MRSA", "ICU-4", 1),
		isolate("cx-2", "pat-1", "MRSA", "ICU-4", 2),
		isolate("cx-3", "pat-2", "MRSA", "ICU-4", 3),
	})

	if len(clusters) != 0 {
		t.Fatalf("repeat cultures from one patient must not form a cluster, got %v", clusters)
	}
}

func TestDetectRespectsWindow(t *testing.T) {
	detector := NewDetector(7*24*time.Hour, 3)

	clusters := detector.Detect([]Isolate{
		isolate("cx-1", "pat-1", "MRSA", "ICU-4", 1),
		isolate("cx-2", "pat-2", "MRSA", "ICU-4", 2),
		isolate("cx-3", "pat-3", "MRSA", "ICU-4", 30), // outside window
	})

	if len(clusters) != 0 {
		t.Fatalf("isolates outside window must not count, got %v", clusters)
	}
}

func TestDetectIgnoresUnknownOrganisms(t *testing.T) {
	detector := NewDetector(14*24*time.Hour, 2)

	clusters := detector.Detect([]Isolate{
		isolate("cx-1", "pat-1", "Pending", "ICU-4", 1),
		isolate("cx-2", "pat-2", "Pending", "ICU-4", 2),
	})

	if len(clusters) != 0 {
		t.Fatalf("unidentified organisms must not cluster, got %v", clusters)
	}
}
