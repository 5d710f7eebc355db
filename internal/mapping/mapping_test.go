package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nishad/geopool/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildTrimsAndKeepsOrder(t *testing.T) {
	studies := []models.Study{
		{GEOSeries: " GSE1 ", SRAStudy: "SRP1", Title: "ignored"},
		{GEOSeries: "GSE2"},
	}

	want := models.Mapping{
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "GSE2"},
	}
	if diff := cmp.Diff(want, Build(studies)); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiValued(t *testing.T) {
	for _, id := range []string{"SRP1,SRP2", "GSE1;GSE2", "GSE1|GSE2", "SRP1 SRP2", "SRP1\tSRP2"} {
		assert.True(t, MultiValued(id), id)
	}
	for _, id := range []string{"SRP1", "GSE12345", ""} {
		assert.False(t, MultiValued(id), id)
	}
}

func TestFilter(t *testing.T) {
	in := models.Mapping{
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "", SRAStudy: "SRP2"},
		{GEOSeries: "GSE3", SRAStudy: ""},
		{GEOSeries: "GSE4", SRAStudy: "SRP4,SRP5"},
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "GSE6", SRAStudy: "SRP6"},
		{GEOSeries: "GSE7", SRAStudy: "SRP6"},
		{GEOSeries: "GSE8", SRAStudy: "SRP8"},
	}

	kept, dropped := Filter(in)

	wantKept := models.Mapping{
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "GSE8", SRAStudy: "SRP8"},
	}
	if diff := cmp.Diff(wantKept, kept); diff != "" {
		t.Errorf("kept mismatch (-want +got):\n%s", diff)
	}

	wantDropped := []Drop{
		{Pair: models.Pair{GEOSeries: "", SRAStudy: "SRP2"}, Reason: ReasonEmptyID},
		{Pair: models.Pair{GEOSeries: "GSE3", SRAStudy: ""}, Reason: ReasonEmptyID},
		{Pair: models.Pair{GEOSeries: "GSE4", SRAStudy: "SRP4,SRP5"}, Reason: ReasonMultiValued},
		{Pair: models.Pair{GEOSeries: "GSE1", SRAStudy: "SRP1"}, Reason: ReasonDuplicate},
		{Pair: models.Pair{GEOSeries: "GSE6", SRAStudy: "SRP6"}, Reason: ReasonConflict},
		{Pair: models.Pair{GEOSeries: "GSE7", SRAStudy: "SRP6"}, Reason: ReasonConflict},
	}
	if diff := cmp.Diff(wantDropped, dropped); diff != "" {
		t.Errorf("dropped mismatch (-want +got):\n%s", diff)
	}

	counts := CountReasons(dropped)
	assert.Equal(t, 2, counts[ReasonEmptyID])
	assert.Equal(t, 1, counts[ReasonMultiValued])
	assert.Equal(t, 1, counts[ReasonDuplicate])
	assert.Equal(t, 2, counts[ReasonConflict])
}

func TestFilterOutputInvariants(t *testing.T) {
	in := models.Mapping{
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: "GSE1", SRAStudy: "SRP1"},
		{GEOSeries: " ", SRAStudy: "SRP3"},
		{GEOSeries: "GSE2", SRAStudy: "SRP2"},
	}

	kept, dropped := Filter(in)
	assert.Equal(t, len(in), len(kept)+len(dropped))

	seen := make(map[models.Pair]bool)
	for _, p := range kept {
		assert.NotEmpty(t, p.GEOSeries)
		assert.NotEmpty(t, p.SRAStudy)
		assert.False(t, seen[p], "duplicate row %v", p)
		seen[p] = true
	}
}

func TestFilterEmpty(t *testing.T) {
	kept, dropped := Filter(nil)
	assert.Empty(t, kept)
	assert.Empty(t, dropped)
}
