package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	assessmentsEvaluated atomic.Int64
	coverageAlerts       atomic.Int64
	mismatchAlerts       atomic.Int64
	unknownVerdicts      atomic.Int64
	dedupeSkips          atomic.Int64
	pollsCompleted       atomic.Int64
	clustersDetected     atomic.Int64
	notificationsSent    atomic.Int64
	notificationsFailed  atomic.Int64
)

func IncAssessments()         { assessmentsEvaluated.Add(1) }
func IncCoverageAlerts()      { coverageAlerts.Add(1) }
func IncMismatchAlerts()      { mismatchAlerts.Add(1) }
func IncUnknownVerdicts()     { unknownVerdicts.Add(1) }
func IncDedupeSkips()         { dedupeSkips.Add(1) }
func IncPollsCompleted()      { pollsCompleted.Add(1) }
func IncClustersDetected()    { clustersDetected.Add(1) }
func IncNotificationsSent()   { notificationsSent.Add(1) }
func IncNotificationsFailed() { notificationsFailed.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP stewardrx_assessments_evaluated_total Number of coverage assessments evaluated since start.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_assessments_evaluated_total counter\n")
	fmt.Fprintf(w, "stewardrx_assessments_evaluated_total %d\n", assessmentsEvaluated.Load())

	fmt.Fprintf(w, "# HELP stewardrx_coverage_alerts_total Number of inadequate-coverage alerts created.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_coverage_alerts_total counter\n")
	fmt.Fprintf(w, "stewardrx_coverage_alerts_total %d\n", coverageAlerts.Load())

	fmt.Fprintf(w, "# HELP stewardrx_mismatch_alerts_total Number of drug-bug mismatch alerts created.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_mismatch_alerts_total counter\n")
	fmt.Fprintf(w, "stewardrx_mismatch_alerts_total %d\n", mismatchAlerts.Load())

	fmt.Fprintf(w, "# HELP stewardrx_unknown_verdicts_total Number of assessments that could not reach a verdict.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_unknown_verdicts_total counter\n")
	fmt.Fprintf(w, "stewardrx_unknown_verdicts_total %d\n", unknownVerdicts.Load())

	fmt.Fprintf(w, "# HELP stewardrx_dedupe_skips_total Number of cultures skipped because they were already assessed.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_dedupe_skips_total counter\n")
	fmt.Fprintf(w, "stewardrx_dedupe_skips_total %d\n", dedupeSkips.Load())

	fmt.Fprintf(w, "# HELP stewardrx_polls_completed_total Number of completed FHIR polling cycles.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_polls_completed_total counter\n")
	fmt.Fprintf(w, "stewardrx_polls_completed_total %d\n", pollsCompleted.Load())

	fmt.Fprintf(w, "# HELP stewardrx_clusters_detected_total Number of outbreak clusters flagged.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_clusters_detected_total counter\n")
	fmt.Fprintf(w, "stewardrx_clusters_detected_total %d\n", clustersDetected.Load())

	fmt.Fprintf(w, "# HELP stewardrx_notifications_sent_total Number of notifications delivered.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_notifications_sent_total counter\n")
	fmt.Fprintf(w, "stewardrx_notifications_sent_total %d\n", notificationsSent.Load())

	fmt.Fprintf(w, "# HELP stewardrx_notifications_failed_total Number of notification deliveries that failed.\n")
	fmt.Fprintf(w, "# TYPE stewardrx_notifications_failed_total counter\n")
	fmt.Fprintf(w, "stewardrx_notifications_failed_total %d\n", notificationsFailed.Load())
}
