package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfJWTOperation is perf metric
	PerfJWTOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_jwt",
		Help:         "perf_jwt provides the sample metrics of JWT sign and verify operations",
		RequiredTags: []string{"action", "alg"},
	}

	// PerfKeyOperation is perf metric
	PerfKeyOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_key",
		Help:         "perf_key provides the sample metrics of key classification and generation",
		RequiredTags: []string{"action", "kind"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfJWTOperation,
	&PerfKeyOperation,
}
