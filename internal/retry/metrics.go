package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
)

const metricNamespace = "steve_gateway"

const (
	callsMetricName   = "calls_total"
	retriesMetricName = "retries_total"
)

const resultLabel = "result"

type resultLabelVal string

const (
	resultLabelSuccessVal      resultLabelVal = "success"
	resultLabelExhaustedVal    resultLabelVal = "retries_exhausted"
	resultLabelNotRetryableVal resultLabelVal = "not_retryable"
)

type metricCollector struct {
	logger  *zap.Logger
	calls   *prometheus.CounterVec
	retries prometheus.Counter
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		logger: zap.L().Named(loggerName).Named("metrics"),
		calls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      callsMetricName,
				Help:      "count of outbound calls by final result",
			},
			[]string{resultLabel},
		),
		retries: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      retriesMetricName,
				Help:      "count of failed attempts that were retried",
			},
		),
	}
}

func (m *metricCollector) ResultInc(result resultLabelVal) {
	cnt, err := m.calls.GetMetricWith(prometheus.Labels{resultLabel: string(result)})
	if err != nil {
		m.logger.Warn(
			"could not record metric",
			zap.String("metric", callsMetricName),
			logfields.Event("recording_metric_failed"),
			zap.Error(err),
		)
		return
	}

	cnt.Inc()
}

func (m *metricCollector) RetryInc() {
	m.retries.Inc()
}
