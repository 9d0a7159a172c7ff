package prometheus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

func newCountingLogger(t *testing.T, reg prometheus.Registerer, minLevel logrus.Level) (*logrus.Logger, *LogCounter) {
	counter, err := NewLogCounter(reg, minLevel, primitives.KindName)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.TraceLevel)
	logger.AddHook(counter)
	return logger, counter
}

func TestLogCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger, counter := newCountingLogger(t, reg, logrus.InfoLevel)

	logger.WithField("prefix", "keeper").Warn("first")
	logger.WithField("prefix", "keeper").Warn("second")
	logger.WithField("prefix", "keeper").Debug("not counted")
	logger.Info("no prefix")
	logger.WithField("prefix", 7).Error("numeric prefix")

	assert.Equal(t, float64(2), testutil.ToFloat64(counter.entries.WithLabelValues("warning", "keeper", noErrorKind)))
	assert.Equal(t, float64(0), testutil.ToFloat64(counter.entries.WithLabelValues("debug", "keeper", noErrorKind)))
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.entries.WithLabelValues("info", defaultPrefix, noErrorKind)))
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.entries.WithLabelValues("error", "7", noErrorKind)))
}

func TestLogCounter_ErrorKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger, counter := newCountingLogger(t, reg, logrus.DebugLevel)

	logger.WithField("prefix", "keeper").WithError(primitives.Malformedf("bad header")).Debug("Rejected client message")
	logger.WithField("prefix", "keeper").WithError(primitives.Malformedf("bad proof")).Debug("Rejected client message")
	logger.WithField("prefix", "keeper").WithError(primitives.ErrFrozen).Debug("Rejected client message")

	assert.Equal(t, float64(2), testutil.ToFloat64(counter.entries.WithLabelValues("debug", "keeper", "malformed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.entries.WithLabelValues("debug", "keeper", "frozen")))
}

func TestNewLogCounter_SharesRegisteredCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewLogCounter(reg, logrus.InfoLevel, nil)
	require.NoError(t, err)
	second, err := NewLogCounter(reg, logrus.WarnLevel, nil)
	require.NoError(t, err)
	assert.Equal(t, first.entries, second.entries)
	assert.DeepEqual(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}, second.Levels())
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger, _ := newCountingLogger(t, reg, logrus.InfoLevel)
	logger.WithField("prefix", "textfile").Error("counted")

	path := filepath.Join(t.TempDir(), "lightclient.prom")
	require.NoError(t, WriteTextfile(path, reg))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, true, strings.Contains(string(content), `lightclient_log_entries_total{kind="none",level="error",prefix="textfile"} 1`))
}
