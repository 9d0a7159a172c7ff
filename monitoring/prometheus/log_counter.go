// Package prometheus holds the process-level metrics helpers of the light
// client CLI: a logrus hook counting log entries and a textfile exporter for
// one-shot commands that never serve /metrics.
package prometheus

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	prefixKey     = "prefix"
	defaultPrefix = "global"
	noErrorKind   = "none"
)

// ErrorClassifier maps an error attached to a log entry to a bounded label.
type ErrorClassifier func(err error) string

// LogCounter is a logrus hook counting entries by level, package prefix and
// the kind of the attached error, if any.
type LogCounter struct {
	entries  *prometheus.CounterVec
	levels   []logrus.Level
	classify ErrorClassifier
}

// NewLogCounter registers lightclient_log_entries_total with reg and returns
// a hook counting every entry at minLevel or more severe. Registering twice
// against the same registry reuses the existing counter.
func NewLogCounter(reg prometheus.Registerer, minLevel logrus.Level, classify ErrorClassifier) (*LogCounter, error) {
	entries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightclient_log_entries_total",
		Help: "Total number of log entries by level, package prefix and error kind.",
	}, []string{"level", "prefix", "kind"})
	if err := reg.Register(entries); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "could not register log counter")
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, errors.New("log counter registered with a different type")
		}
		entries = existing
	}
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= minLevel {
			levels = append(levels, l)
		}
	}
	return &LogCounter{entries: entries, levels: levels, classify: classify}, nil
}

// Fire counts entry.
func (c *LogCounter) Fire(entry *logrus.Entry) error {
	prefix := defaultPrefix
	if v, ok := entry.Data[prefixKey]; ok {
		prefix = fmt.Sprint(v)
	}
	kind := noErrorKind
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok && c.classify != nil {
		kind = c.classify(err)
	}
	c.entries.WithLabelValues(entry.Level.String(), prefix, kind).Inc()
	return nil
}

// Levels --
func (c *LogCounter) Levels() []logrus.Level {
	return c.levels
}
