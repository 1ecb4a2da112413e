package snapshot_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/snapshot"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeSource is an in-memory Source with switchable failures.
type fakeSource struct {
	products  []knowledge.Product
	entities  map[string][]knowledge.Entity
	links     map[string][]knowledge.LinkedEntity
	records   []knowledge.ExportRecordInput
	linkErr   error
	recordErr error
}

func (f *fakeSource) GetProduct(id string) (*knowledge.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func (f *fakeSource) ListProducts() ([]knowledge.Product, error) { return f.products, nil }

func (f *fakeSource) ListEntities(productID string, _ knowledge.EntityFilter) ([]knowledge.Entity, error) {
	return f.entities[productID], nil
}

func (f *fakeSource) LinkedEntities(id string) ([]knowledge.LinkedEntity, error) {
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	return f.links[id], nil
}

func (f *fakeSource) AddExportRecord(in knowledge.ExportRecordInput) (*knowledge.ExportRecord, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.records = append(f.records, in)
	return &knowledge.ExportRecord{ID: "rec", Mode: in.Mode, Total: in.Total, Counts: in.Counts, OutputPath: in.OutputPath}, nil
}

func newSource() *fakeSource {
	return &fakeSource{
		products: []knowledge.Product{{ID: "p1", Name: "Scoreboard"}, {ID: "p2", Name: "Roster"}},
		entities: map[string][]knowledge.Entity{
			"p1": {
				{ID: "e1", ProductID: "p1", Type: knowledge.TypeProblem, Title: "Scores lag", Body: "Live scores are late.", UpdatedAt: now.AddDate(0, 0, -1)},
				{ID: "e2", ProductID: "p1", Type: knowledge.TypeCapture, Title: "", Body: "raw note", UpdatedAt: now.AddDate(0, 0, -30)},
			},
			"p2": {
				{ID: "e3", ProductID: "p2", Type: knowledge.TypeProblem, Title: "Roster sync", UpdatedAt: now.AddDate(0, 0, -2)},
			},
		},
		links: map[string][]knowledge.LinkedEntity{
			"e1": {{RelationshipID: "r1", RelationshipType: knowledge.Supports, Direction: knowledge.Incoming,
				Entity: knowledge.EntitySummary{ID: "e2", Type: knowledge.TypeCapture}}},
		},
	}
}

func newEngine(src snapshot.Source) *snapshot.Engine {
	return snapshot.New(src, nil, snapshot.WithClock(func() time.Time { return now }))
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRequestFromSettings(t *testing.T) {
	st := config.DefaultSettings("/work")
	req := snapshot.RequestFromSettings(st, "p1", now)
	assert.Equal(t, config.ExportFull, req.Mode)
	assert.Nil(t, req.Since)
	assert.True(t, req.IncludeLinked)
	assert.Equal(t, filepath.Join("/work", "exports"), req.OutputDir)

	st.DefaultExportMode = config.ExportIncremental
	st.DefaultIncrementalDays = 7
	req = snapshot.RequestFromSettings(st, "", now)
	require.NotNil(t, req.Since)
	assert.Equal(t, now.AddDate(0, 0, -7), *req.Since)
}

func TestPreview_FullAndIncremental(t *testing.T) {
	e := newEngine(newSource())

	p, err := e.Preview(snapshot.Request{Mode: config.ExportFull})
	require.NoError(t, err)
	assert.Equal(t, knowledge.ScopeAll, p.Scope)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.Counts[knowledge.TypeProblem])

	since := now.AddDate(0, 0, -7)
	p, err = e.Preview(snapshot.Request{ProductID: "p1", Mode: config.ExportIncremental, Since: &since})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.Scope)
	require.Len(t, p.Entities, 1)
	assert.Equal(t, "e1", p.Entities[0].ID)
}

func TestPreview_Errors(t *testing.T) {
	e := newEngine(newSource())

	_, err := e.Preview(snapshot.Request{Mode: "partial"})
	assert.Equal(t, knowledge.KindValidation, knowledge.KindOf(err))

	_, err = e.Preview(snapshot.Request{Mode: config.ExportIncremental})
	assert.Equal(t, knowledge.KindValidation, knowledge.KindOf(err))

	_, err = e.Preview(snapshot.Request{ProductID: "missing", Mode: config.ExportFull})
	assert.Equal(t, knowledge.KindNotFound, knowledge.KindOf(err))
}

func TestExecute_MatchesPreviewAndRecordsOnce(t *testing.T) {
	src := newSource()
	e := newEngine(src)
	dir := t.TempDir()
	since := now.AddDate(0, 0, -7)
	req := snapshot.Request{Mode: config.ExportIncremental, Since: &since, IncludeLinked: true, OutputDir: dir}

	preview, err := e.Preview(req)
	require.NoError(t, err)

	rec, err := e.Execute(req)
	require.NoError(t, err)
	assert.Equal(t, preview.Total, rec.Total)
	assert.Equal(t, preview.Counts, rec.Counts)
	require.Len(t, src.records, 1)
	assert.Equal(t, filepath.Join(dir, "thoughtbox-all-20250615-120000-000.json"), rec.OutputPath)
	assert.Equal(t, []string{"thoughtbox-all-20250615-120000-000.json"}, dirEntries(t, dir))

	data, err := os.ReadFile(rec.OutputPath)
	require.NoError(t, err)
	var doc struct {
		Version  int    `json:"version"`
		Scope    string `json:"scope"`
		Total    int    `json:"total"`
		Entities []struct {
			ID    string                   `json:"id"`
			Links []knowledge.LinkedEntity `json:"links"`
		} `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, snapshot.ArchiveVersion, doc.Version)
	assert.Equal(t, knowledge.ScopeAll, doc.Scope)
	assert.Equal(t, 2, doc.Total)
	require.Len(t, doc.Entities, 2)
	assert.Equal(t, "e1", doc.Entities[0].ID)
	assert.Len(t, doc.Entities[0].Links, 1)
}

func TestExecute_ExplicitPath(t *testing.T) {
	src := newSource()
	e := newEngine(src)
	out := filepath.Join(t.TempDir(), "nested", "out.json")

	rec, err := e.Execute(snapshot.Request{ProductID: "p2", Mode: config.ExportFull, OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, rec.OutputPath)
	assert.FileExists(t, out)
	assert.Equal(t, "p2", src.records[0].ProductID)
}

func TestExecute_AllOrNothing(t *testing.T) {
	boom := &knowledge.Error{Op: "add export record", Kind: knowledge.ErrUnavailable, Err: errors.New("disk full")}

	tests := []struct {
		name  string
		setup func(*fakeSource)
	}{
		{"record append fails", func(f *fakeSource) { f.recordErr = boom }},
		{"linked lookup fails", func(f *fakeSource) { f.linkErr = boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource()
			tt.setup(src)
			dir := t.TempDir()

			_, err := newEngine(src).Execute(snapshot.Request{Mode: config.ExportFull, IncludeLinked: true, OutputDir: dir})
			require.Error(t, err)
			assert.Equal(t, knowledge.KindUnavailable, knowledge.KindOf(err))
			assert.Empty(t, dirEntries(t, dir), "no output file may remain")
			assert.Empty(t, src.records, "no record may be appended")
		})
	}
}

func TestExecute_SameInstantKeepsEarlierArchive(t *testing.T) {
	src := newSource()
	e := newEngine(src)
	dir := t.TempDir()
	req := snapshot.Request{ProductID: "p1", Mode: config.ExportFull, OutputDir: dir}

	first, err := e.Execute(req)
	require.NoError(t, err)
	src.entities["p1"] = append(src.entities["p1"],
		knowledge.Entity{ID: "e4", ProductID: "p1", Type: knowledge.TypeFeatureRequest, Title: "Push alerts", UpdatedAt: now})
	second, err := e.Execute(req)
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputPath, second.OutputPath)
	assert.Equal(t, filepath.Join(dir, "thoughtbox-p1-20250615-120000-000-2.json"), second.OutputPath)
	assert.Len(t, dirEntries(t, dir), 2)
	assert.Equal(t, 2, archiveTotal(t, first.OutputPath))
	assert.Equal(t, 3, archiveTotal(t, second.OutputPath))
}

func TestExecute_NeverReplacesExistingFile(t *testing.T) {
	boom := &knowledge.Error{Op: "add export record", Kind: knowledge.ErrUnavailable, Err: errors.New("db down")}

	for _, recordErr := range []error{nil, boom} {
		src := newSource()
		src.recordErr = recordErr
		out := filepath.Join(t.TempDir(), "keep.json")
		require.NoError(t, os.WriteFile(out, []byte("user data"), 0o644))

		_, err := newEngine(src).Execute(snapshot.Request{ProductID: "p1", Mode: config.ExportFull, OutputPath: out})
		assert.Equal(t, knowledge.KindValidation, knowledge.KindOf(err))
		data, readErr := os.ReadFile(out)
		require.NoError(t, readErr)
		assert.Equal(t, "user data", string(data))
		assert.Empty(t, src.records)
	}
}

func TestExecute_RecordFailureRemovesExplicitFile(t *testing.T) {
	src := newSource()
	src.recordErr = &knowledge.Error{Op: "add export record", Kind: knowledge.ErrUnavailable, Err: errors.New("db down")}
	dir := t.TempDir()
	out := filepath.Join(dir, "fresh.json")

	_, err := newEngine(src).Execute(snapshot.Request{ProductID: "p1", Mode: config.ExportFull, OutputPath: out})
	assert.Equal(t, knowledge.KindUnavailable, knowledge.KindOf(err))
	assert.NoFileExists(t, out)
	assert.Empty(t, dirEntries(t, dir))
}

func archiveTotal(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc.Total
}

func TestExecute_NeedsDestination(t *testing.T) {
	_, err := newEngine(newSource()).Execute(snapshot.Request{Mode: config.ExportFull})
	assert.Equal(t, knowledge.KindValidation, knowledge.KindOf(err))
}

func TestCopySnapshot(t *testing.T) {
	e := newEngine(newSource())
	text, err := e.CopySnapshot("p1")
	require.NoError(t, err)

	want := "# Scoreboard\n" +
		"\n## Scores lag (problem)\n\nLive scores are late.\n" +
		"\n## Untitled (capture)\n\nraw note\n"
	assert.Equal(t, want, text)

	_, err = e.CopySnapshot("missing")
	assert.Equal(t, knowledge.KindNotFound, knowledge.KindOf(err))
}

func TestDefaultFileName(t *testing.T) {
	assert.Equal(t, "thoughtbox-p1-20250615-120000-000.json", snapshot.DefaultFileName("p1", now))
	assert.Equal(t, "thoughtbox-p1-20250615-120000-250.json", snapshot.DefaultFileName("p1", now.Add(250*time.Millisecond)))
}
