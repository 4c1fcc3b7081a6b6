// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import counts what statement imports did.
type Import struct {
	Files      *prometheus.CounterVec
	Inserted   prometheus.Counter
	Duplicates prometheus.Counter
}

// NewImport registers the import counters on the given registerer.
func NewImport(reg prometheus.Registerer) *Import {
	factory := promauto.With(reg)
	return &Import{
		Files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardledger_import_files_total",
			Help: "Statement files processed, by outcome.",
		}, []string{"status"}),
		Inserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_import_transactions_inserted_total",
			Help: "Transactions written by imports.",
		}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_import_duplicates_skipped_total",
			Help: "Statement rows skipped because their key already existed.",
		}),
	}
}
