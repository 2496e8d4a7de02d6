package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-coverage/types"
)

const (
	MetricsNamespace = "coverage"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	analysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "analysis_runs_total",
		Help:      "Count of coverage analysis runs",
	}, []string{
		"run_id",
		"success",
	})

	coveredPercentage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "covered_percentage",
		Help:      "Covered percentage per metric for the latest run",
	}, []string{
		"run_id",
		"metric",
	})

	testsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Test counts of the latest run",
	}, []string{
		"run_id",
		"result",
	})

	analysisDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of coverage analysis runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordAnalysis emits the metrics of one completed coverage analysis run.
func RecordAnalysis(runID string, result *types.CoverageAnalysisResult) {
	if result == nil {
		return
	}
	if Debug {
		log.Debug("metric record",
			"m", "analysis_runs_total",
			"run_id", runID,
			"success", result.Success,
			"lines_pct", result.Summary.LinesCoveredPercentage)
	}

	analysisRuns.WithLabelValues(runID, fmt.Sprintf("%t", result.Success)).Inc()
	analysisDuration.WithLabelValues(runID).Set(result.Duration.Seconds())

	coveredPercentage.WithLabelValues(runID, "lines").Set(result.Summary.LinesCoveredPercentage)
	coveredPercentage.WithLabelValues(runID, "branches").Set(result.Summary.BranchesCoveredPercentage)
	coveredPercentage.WithLabelValues(runID, "methods").Set(result.Summary.MethodsCoveredPercentage)
	coveredPercentage.WithLabelValues(runID, "classes").Set(result.Summary.ClassesCoveredPercentage)

	testsTotal.WithLabelValues(runID, "total").Set(float64(result.TestResults.TotalTests))
	testsTotal.WithLabelValues(runID, "passed").Set(float64(result.TestResults.PassedTests))
	testsTotal.WithLabelValues(runID, "failed").Set(float64(result.TestResults.FailedTests))
	testsTotal.WithLabelValues(runID, "skipped").Set(float64(result.TestResults.SkippedTests))
}
