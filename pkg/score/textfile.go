package score

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "celleval"

var pairLabels = []string{"attempt", "reference", "candidate"}

// Registry returns a registry holding the report as gauges.
// Undefined pairs only export their valid row count.
func (r *Report) Registry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	r2 := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "r2",
		Help:      "Coefficient of determination of the candidate column against the reference column",
	}, pairLabels)

	mae := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mae",
		Help:      "Mean absolute error of the candidate column against the reference column",
	}, pairLabels)

	valid := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "valid_rows",
		Help:      "Rows where both columns are defined",
	}, pairLabels)

	rows := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rows_total",
		Help:      "Observations in the evaluated table",
	})

	for _, c := range []prometheus.Collector{r2, mae, valid, rows} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	rows.Set(float64(r.Rows))
	for _, res := range r.Results {
		lv := []string{strconv.Itoa(res.Attempt), res.Reference, res.Candidate}
		valid.WithLabelValues(lv...).Set(float64(res.N))
		if res.Err != nil {
			continue
		}
		r2.WithLabelValues(lv...).Set(res.R2)
		mae.WithLabelValues(lv...).Set(res.MAE)
	}

	return reg, nil
}

// WriteTextfile writes the report in the Prometheus text format to path,
// for the node exporter textfile collector.
func (r *Report) WriteTextfile(path string) error {
	reg, err := r.Registry()
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
