package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.StudiesFetched.Add(10)
	m.StudiesClassified.WithLabelValues("bulk").Add(7)
	m.StudiesClassified.WithLabelValues("singlecell").Add(3)
	m.Resolutions.WithLabelValues("not_found").Inc()
	m.RowsDropped.WithLabelValues("duplicate").Add(2)
	m.RowsWritten.Add(5)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.StudiesFetched))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.StudiesClassified.WithLabelValues("bulk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("not_found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues("duplicate")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsWritten))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RowsWritten.Inc()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsWritten))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.StudiesFetched.Add(3)
	m.StudiesExcluded.Inc()

	path := filepath.Join(t.TempDir(), "geopool.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.Contains(text, "geopool_studies_fetched_total 3"), text)
	assert.True(t, strings.Contains(text, "geopool_studies_excluded_total 1"), text)
}

func TestWriteTextfileBadDir(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "geopool.prom"))
	assert.Error(t, err)
}
