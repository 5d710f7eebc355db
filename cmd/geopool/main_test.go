package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nishad/geopool/internal/config"
	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/resolve"
	"github.com/nishad/geopool/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useUpstream points the loaded config at a fake upstream
func useUpstream(t *testing.T) *testutil.Upstream {
	t.Helper()
	up := testutil.NewUpstream(t)

	c := config.DefaultConfig()
	c.APIs.ENABrowser = up.ENAURL()
	c.APIs.EBISearch = up.EBISearchURL()
	c.APIs.Eutils = up.EutilsURL()
	c.APIs.RNASeqer = up.RNASeqerURL()
	c.HTTP.RequestsPerSecond = 0
	c.HTTP.RetryWaitSeconds = 0

	prevCfg, prevQuiet := cfg, quiet
	cfg, quiet = c, true
	t.Cleanup(func() { cfg, quiet = prevCfg, prevQuiet })
	return up
}

func TestValidateRejectsBadFlags(t *testing.T) {
	useUpstream(t)
	dir := t.TempDir()
	file := testutil.TempFile(t, "plain.txt", "x")

	tests := []struct {
		name  string
		flags runFlags
		want  string
	}{
		{"unknown type", runFlags{studyType: "spatial", output: dir, resolve: "none"}, "invalid --type"},
		{"missing output", runFlags{studyType: "bulk", resolve: "none"}, "--output is required"},
		{"nonexistent output", runFlags{studyType: "bulk", output: filepath.Join(dir, "nope"), resolve: "none"}, "does not exist"},
		{"output is a file", runFlags{studyType: "bulk", output: file, resolve: "none"}, "not a directory"},
		{"non-numeric limit", runFlags{studyType: "bulk", output: dir, limit: "ten", resolve: "none"}, "must be a number"},
		{"negative limit", runFlags{studyType: "bulk", output: dir, limit: "-1", resolve: "none"}, "must not be negative"},
		{"unknown resolver", runFlags{studyType: "bulk", output: dir, resolve: "sideways"}, "invalid --resolve"},
		{"negative concurrency", runFlags{studyType: "bulk", output: dir, resolve: "none", concurrency: -2}, "invalid --concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	useUpstream(t)
	f := runFlags{studyType: "singlecell", output: t.TempDir(), resolve: string(resolve.SRAToGEO)}

	p, err := f.validate()
	require.NoError(t, err)
	assert.Equal(t, "singlecell", string(p.label))
	assert.Equal(t, cfg.Pipeline.Limit, p.limit)
	assert.Equal(t, cfg.Pipeline.Concurrency, p.concurrency)
	assert.Equal(t, resolve.SRAToGEO, p.direction)

	f.limit, f.resolve, f.concurrency = " 25 ", "none", 3
	p, err = f.validate()
	require.NoError(t, err)
	assert.Equal(t, 25, p.limit)
	assert.Empty(t, p.direction)
	assert.Equal(t, 3, p.concurrency)
}

func TestRunPipelineValidationMakesNoCalls(t *testing.T) {
	up := useUpstream(t)
	f := &runFlags{studyType: "bulk", output: t.TempDir(), limit: "abc", resolve: "geo-to-sra"}

	err := runPipeline(context.Background(), f, "ena")
	require.Error(t, err)
	assert.Zero(t, up.Calls(testutil.RouteENA))
}

func TestRunPipelineList(t *testing.T) {
	up := useUpstream(t)
	up.ENABody = testutil.ProjectSetXML(
		models.Study{ProjectID: "PRJNA1", GEOSeries: "GSE1", Title: "Liver RNA-seq"},
		testutil.SingleCellStudy(),
	)
	up.EBISearch["GSE1"] = []string{"SRP1"}

	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "geopool.prom")
	f := &runFlags{studyType: "bulk", output: dir, resolve: "geo-to-sra", metricsFile: metricsFile}

	require.NoError(t, runPipeline(context.Background(), f, "ena"))
	assert.Equal(t, "GSE1\tSRP1\n", testutil.ReadFile(t, filepath.Join(dir, "geo_bulk_rnaseq.tsv")))
	assert.Contains(t, testutil.ReadFile(t, metricsFile), "geopool_rows_written_total 1")
	assert.Zero(t, up.Calls(testutil.RouteTracked))
}

func TestRunPipelinePool(t *testing.T) {
	up := useUpstream(t)
	up.Bulk = testutil.StudyListJSON("SRP1", "SRP2")
	up.Tracked = testutil.StudyListJSON("SRP2")
	up.Eutils["SRP1"] = []string{"200000001"}
	up.Eutils["SRP2"] = []string{"200000002"}

	dir := t.TempDir()
	f := &runFlags{studyType: "bulk", output: dir, resolve: "sra-to-geo", exclude: true}

	require.NoError(t, runPipeline(context.Background(), f, "rnaseqer"))
	assert.Equal(t, "GSE1\tSRP1\n", testutil.ReadFile(t, filepath.Join(dir, "geo_bulk_rnaseq.tsv")))
	assert.Equal(t, 1, up.Calls(testutil.RouteTracked))
}

func TestWriteLabels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLabels(&buf, []string{
		"Single-cell RNA-seq of mouse cortex",
		"RNA-seq of liver tissue, bulk samples",
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "singlecell\t"))
	assert.True(t, strings.HasPrefix(lines[1], "bulk\t"))
}

func TestInferDirection(t *testing.T) {
	assert.Equal(t, resolve.GEOToSRA, inferDirection("GSE12345"))
	assert.Equal(t, resolve.SRAToGEO, inferDirection("SRP000001"))
	assert.Equal(t, resolve.SRAToGEO, inferDirection("erp000001"))
	assert.Equal(t, resolve.Direction(""), inferDirection("PRJNA1"))
}

func TestArgsOrStdin(t *testing.T) {
	got, err := argsOrStdin(nil, strings.NewReader("GSE1\n\n# comment\n  SRP2  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE1", "SRP2"}, got)

	got, err = argsOrStdin([]string{"GSE9"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE9"}, got)
}

func TestResolveCommand(t *testing.T) {
	up := useUpstream(t)
	up.EBISearch["GSE1"] = []string{"SRP1"}
	up.Eutils["SRP7"] = []string{"200000007", "200000008"}

	var out bytes.Buffer
	resolveCmd.SetOut(&out)
	resolveCmd.SetContext(context.Background())
	t.Cleanup(func() { resolveCmd.SetOut(os.Stdout) })

	require.NoError(t, runResolve(resolveCmd, []string{"GSE1", "SRP7", "PRJNA1"}))
	assert.Equal(t, "GSE1\tresolved\tSRP1\nSRP7\tambiguous\t\n", out.String())
}

func TestRaiseLogLevel(t *testing.T) {
	prev := logLevel.Level()
	t.Cleanup(func() { logLevel.Set(prev) })

	logLevel.Set(slog.LevelInfo)
	restore := raiseLogLevel(slog.LevelWarn)
	assert.Equal(t, slog.LevelWarn, logLevel.Level())
	restore()
	assert.Equal(t, slog.LevelInfo, logLevel.Level())

	// Never lowers a stricter level.
	logLevel.Set(slog.LevelError)
	restore = raiseLogLevel(slog.LevelWarn)
	assert.Equal(t, slog.LevelError, logLevel.Level())
	restore()
	assert.Equal(t, slog.LevelError, logLevel.Level())
}
