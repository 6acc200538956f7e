// Package metrics holds the Prometheus collectors of the offpath service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every offpath metric.
const Namespace = "offpath"

// Register registers every collector in reg. Repeated calls with the same registry are no-ops
// for collectors that are already registered.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		httpRequestDuration, httpRequestsTotal, httpRequestsInFlight,
		EmbeddingRequestsTotal, EmbeddingRequestDuration, EmbeddingTokensTotal,
		EmbeddingErrorsTotal, EmbeddingRateLimitWait, EmbeddingCacheTotal,
		IndexBuildsTotal, IndexBuildDuration, IndexCorpusDocuments,
		SearchRequestsTotal, SearchDuration, SearchResults,
		IngestPostsTotal, IngestVectorsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err //nolint:wrapcheck // registration errors are self-describing
		}
	}
	return nil
}
