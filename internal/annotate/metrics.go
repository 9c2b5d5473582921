package annotate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
)

const metricNamespace = "steve"

const (
	deliveriesMetricName     = "deliveries_total"
	issueMutationsMetricName = "issue_mutations_total"
)

const (
	outcomeLabel    = "outcome"
	repositoryLabel = "repository"
)

type deliveryOutcome string

const (
	deliveryOutcomeNotApplicable deliveryOutcome = "not_applicable"
	deliveryOutcomeParseError    deliveryOutcome = "parse_error"
	deliveryOutcomeNotMerged     deliveryOutcome = "not_merged"
	deliveryOutcomeUntracked     deliveryOutcome = "untracked_repository"
	deliveryOutcomeFetchFailed   deliveryOutcome = "fetch_failed"
	deliveryOutcomeNoIssues      deliveryOutcome = "no_issues"
	deliveryOutcomeProcessed     deliveryOutcome = "processed"
)

type mutationOutcome string

const (
	mutationOutcomeSuccess mutationOutcome = "success"
	mutationOutcomeFailure mutationOutcome = "failure"
	mutationOutcomeSkipped mutationOutcome = "skipped"
)

type metricCollector struct {
	logger         *zap.Logger
	deliveries     *prometheus.CounterVec
	issueMutations *prometheus.CounterVec
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		logger: zap.L().Named(loggerName).Named("metrics"),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      deliveriesMetricName,
				Help:      "count of processed webhook deliveries by outcome",
			},
			[]string{outcomeLabel},
		),
		issueMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      issueMutationsMetricName,
				Help:      "count of issue annotations by repository and outcome",
			},
			[]string{repositoryLabel, outcomeLabel},
		),
	}
}

func (m *metricCollector) logRecordingFailed(metricName string, err error) {
	m.logger.Warn(
		"could not record metric",
		zap.String("metric", metricName),
		logfields.Event("recording_metric_failed"),
		zap.Error(err),
	)
}

func (m *metricCollector) DeliveryInc(outcome deliveryOutcome) {
	cnt, err := m.deliveries.GetMetricWith(prometheus.Labels{outcomeLabel: string(outcome)})
	if err != nil {
		m.logRecordingFailed(deliveriesMetricName, err)
		return
	}

	cnt.Inc()
}

func (m *metricCollector) IssueMutationInc(repository string, outcome mutationOutcome) {
	cnt, err := m.issueMutations.GetMetricWith(prometheus.Labels{
		repositoryLabel: repository,
		outcomeLabel:    string(outcome),
	})
	if err != nil {
		m.logRecordingFailed(issueMutationsMetricName, err)
		return
	}

	cnt.Inc()
}
