package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aliskhannn/image-uploader/internal/model"
)

// Confirmation results.
const (
	ConfirmAccepted    = "accepted"
	ConfirmInvalid     = "invalid"
	ConfirmConflict    = "conflict"
	ConfirmNotUploaded = "not_uploaded"
	ConfirmError       = "error"
)

// PrometheusObserver exports upload pipeline metrics to Prometheus.
// A nil *PrometheusObserver is valid and records nothing.
type PrometheusObserver struct {
	intents       *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewPrometheusObserver registers the pipeline metrics on reg.
// Metrics already registered by a previous observer are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "image_uploader"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var (
		o   PrometheusObserver
		err error
	)

	o.intents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intents_issued_total",
		Help:      "Upload intents issued, by owning application.",
	}, []string{"app"}))
	if err != nil {
		return nil, err
	}

	o.confirmations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmations_total",
		Help:      "Upload confirmations, by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	o.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "processing_runs_total",
		Help:      "Derivative processing runs, by status and failure kind.",
	}, []string{"status", "kind"}))
	if err != nil {
		return nil, err
	}

	o.runDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "processing_run_duration_seconds",
		Help:      "Latency of derivative processing runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}

	return &o, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}

		return c, fmt.Errorf("register pipeline metric: %w", err)
	}

	return c, nil
}

// RecordIntents counts intents issued for app.
func (o *PrometheusObserver) RecordIntents(app string, count int) {
	if o == nil {
		return
	}
	o.intents.WithLabelValues(app).Add(float64(count))
}

// RecordConfirmation counts a confirmation by its result.
func (o *PrometheusObserver) RecordConfirmation(result string) {
	if o == nil {
		return
	}
	o.confirmations.WithLabelValues(result).Inc()
}

// RecordRun tracks the outcome and duration of a processing run.
func (o *PrometheusObserver) RecordRun(outcome model.Outcome, duration time.Duration) {
	if o == nil {
		return
	}
	o.runs.WithLabelValues(outcome.Status, string(outcome.Kind)).Inc()
	o.runDuration.WithLabelValues(outcome.Status).Observe(duration.Seconds())
}
