package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nishad/geopool/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "geo_bulk_rnaseq.tsv", FileName("bulk"))
	assert.Equal(t, "geo_singlecell_rnaseq.tsv", FileName("singlecell"))
}

func TestWriteMapping(t *testing.T) {
	dir := t.TempDir()
	mapping := models.Mapping{
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "GSE2", SRAStudy: "SRP2"},
	}

	path, err := WriteMapping(dir, "bulk", mapping)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "geo_bulk_rnaseq.tsv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GSE1\tSRP1\nGSE2\tSRP2\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteMappingEmpty(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteMapping(dir, "singlecell", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteMappingOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName("bulk")), []byte("old\tdata\n"), 0644))

	path, err := WriteMapping(dir, "bulk", models.Mapping{{GEOSeries: "GSE9", SRAStudy: "SRP9"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GSE9\tSRP9\n", string(data))
}

func TestWriteMappingMissingDir(t *testing.T) {
	_, err := WriteMapping(filepath.Join(t.TempDir(), "missing"), "bulk", nil)
	assert.Error(t, err)
}

func TestWriteStudyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studies.tsv")
	studies := []models.Study{
		{ProjectID: "PRJNA1", SRAStudy: "SRP1", GEOSeries: "GSE1", Title: "Liver RNA-seq", Organism: "Homo sapiens"},
		{ProjectID: "PRJNA2", GEOSeries: "GSE2", Title: "Kidney"},
	}

	require.NoError(t, WriteStudyTable(path, studies))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "project_id\tsra_study\tgeo_series\ttitle\torganism\n" +
		"PRJNA1\tSRP1\tGSE1\tLiver RNA-seq\tHomo sapiens\n" +
		"PRJNA2\t\tGSE2\tKidney\t\n"
	assert.Equal(t, want, string(data))
}
