package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameCacheHits   = "limeboard_cache_hits_total"
	MetricNameCacheMisses = "limeboard_cache_misses_total"
)

// allowedCacheNames bounds the cache label cardinality.
var allowedCacheNames = map[string]bool{
	"user_surveys": true,
}

// NormalizeCacheName returns name if allowed, otherwise "other".
func NormalizeCacheName(name string) string {
	if allowedCacheNames[name] {
		return name
	}

	return "other"
}
