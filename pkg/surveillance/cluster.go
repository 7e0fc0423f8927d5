package surveillance

import (
	"sort"
	"time"

	"github.com/stewardrx/platform/pkg/common/models"
	"github.com/stewardrx/platform/pkg/microbiology"
)

// Cluster is a potential outbreak: repeated isolates of the same organism
// category on one unit inside the rolling window.
type Cluster struct {
	Category  microbiology.OrganismCategory `json:"category"`
	Location  string                        `json:"location"`
	Cultures  []string                      `json:"culture_ids"`
	Patients  []string                      `json:"patient_ids"`
	FirstSeen time.Time                     `json:"first_seen"`
	LastSeen  time.Time                     `json:"last_seen"`
}

// Isolate is one culture observation fed to the detector.
type Isolate struct {
	Culture  models.CultureResult
	Location string
}

// Detector flags organism clusters. Pure over its inputs: the caller decides
// which recent cultures to feed it each cycle.
type Detector struct {
	window    time.Duration
	threshold int
}

func NewDetector(window time.Duration, threshold int) *Detector {
	if threshold < 2 {
		threshold = 2
	}
	return &Detector{window: window, threshold: threshold}
}

// Detect groups isolates by (category, location) and returns every group
// of at least threshold distinct patients whose first and last isolate fall
// within the window. Unknown categories never cluster: an unidentified
// organism is not surveillance signal.
func (d *Detector) Detect(isolates []Isolate) []Cluster {
	type key struct {
		category microbiology.OrganismCategory
		location string
	}

	groups := make(map[key][]Isolate)
	for _, iso := range isolates {
		if iso.Location == "" {
			continue
		}
		category := microbiology.Categorize(iso.Culture.Organism, iso.Culture.GramStain)
		if category == microbiology.CategoryUnknown {
			continue
		}
		k := key{category: category, location: iso.Location}
		groups[k] = append(groups[k], iso)
	}

	var clusters []Cluster
	for k, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Culture.CollectedAt.Before(members[j].Culture.CollectedAt)
		})

		inWindow := withinWindow(members, d.window)
		patients := distinctPatients(inWindow)
		if len(patients) < d.threshold {
			continue
		}

		cluster := Cluster{
			Category:  k.category,
			Location:  k.location,
			FirstSeen: inWindow[0].Culture.CollectedAt,
			LastSeen:  inWindow[len(inWindow)-1].Culture.CollectedAt,
			Patients:  patients,
		}
		for _, iso := range inWindow {
			cluster.Cultures = append(cluster.Cultures, iso.Culture.FHIRID)
		}
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Location == clusters[j].Location {
			return clusters[i].Category < clusters[j].Category
		}
		return clusters[i].Location < clusters[j].Location
	})
	return clusters
}

// withinWindow trims the sorted slice to the largest suffix spanning at most
// the window.
func withinWindow(sorted []Isolate, window time.Duration) []Isolate {
	if len(sorted) == 0 || window <= 0 {
		return sorted
	}
	last := sorted[len(sorted)-1].Culture.CollectedAt
	cutoff := last.Add(-window)
	for i, iso := range sorted {
		if !iso.Culture.CollectedAt.Before(cutoff) {
			return sorted[i:]
		}
	}
	return nil
}

func distinctPatients(isolates []Isolate) []string {
	seen := make(map[string]struct{})
	var patients []string
	for _, iso := range isolates {
		id := iso.Culture.PatientID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		patients = append(patients, id)
	}
	sort.Strings(patients)
	return patients
}
