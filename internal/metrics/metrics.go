// Package metrics exposes the store's counters and gauges through
// VictoriaMetrics/metrics' default set, the same package the retrieval
// pack's storage-engine code (fenghaojiang-erigon-lib's kv package) uses
// for its own page-op and commit-phase counters. Everything here is a
// package-level var registered once at init, read by an HTTP handler a
// transport adapter mounts at /metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

var (
	// CursorMarksIssued counts every Select/Pull response that carried a
	// continuation Mark, i.e. every paginated query that did not fit in
	// one response.
	CursorMarksIssued = metrics.NewCounter(`pointstore_cursor_marks_issued_total`)

	// SubscriptionQueueDrops counts sessions whose delivery queue
	// overflowed and was marked lost.
	SubscriptionQueueDrops = metrics.NewCounter(`pointstore_subscription_queue_drops_total`)

	// UpdatesApplied and UpdatesRejected count committed writes by
	// outcome.
	UpdatesApplied  = metrics.NewCounter(`pointstore_updates_applied_total`)
	UpdatesRejected = metrics.NewCounter(`pointstore_updates_rejected_total`)

	// PurgedRows counts rows removed by the archiver's sweep or an
	// explicit purge RPC.
	PurgedRows = metrics.NewCounter(`pointstore_purged_rows_total`)
)

// RegisterPartnerQueueDepth wires a gauge that samples depth on every
// scrape for the named replication partner. Call once per partner after
// registration; re-registering the same name keeps the first gauge and its
// sampling function, and the new depth function is not used.
func RegisterPartnerQueueDepth(partner string, depth func() float64) {
	metrics.GetOrCreateGauge(fmt.Sprintf(`pointstore_replicator_partner_queue_depth{partner=%q}`, partner), depth)
}

// Handler serves the process's metrics in Prometheus exposition format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
}
