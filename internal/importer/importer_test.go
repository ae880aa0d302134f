package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nikolag/summit/internal/config"
	"github.com/nikolag/summit/internal/countries"
	"github.com/nikolag/summit/internal/storage"
)

type sheetData struct {
	header []any
	rows   [][]any
}

// buildWorkbook assembles an xlsx file in memory from per-sheet data.
func buildWorkbook(t *testing.T, sheets map[string]sheetData) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, data := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		require.NoError(t, f.SetSheetRow(name, "A1", &data.header))
		for i, row := range data.rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellRef, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func validSheets() map[string]sheetData {
	return map[string]sheetData{
		"Participant": {
			header: []any{"Name", "Position", "Country", "Gender", "DOB", "POB", "Birth Country", "Email", "Phone", "Event"},
			rows: [][]any{
				{"Amar Hodzic", "Participant", "BiH", "M", "1990-04-12", "Mostar", "BiH", "amar@example.org", "00387 61 123 456", ""},
				{"Ivana Kovac", "Instructor", "Hrvatska", "F", "1985-11-02", "Split", "Croatia", "", "+385911234567", ""},
			},
		},
		"Country": {
			header: []any{"Country"},
			rows:   [][]any{{"BiH"}, {"Hrvatska"}},
		},
		"Events": {
			header: []any{"Event", "Title", "Location", "Date From", "Date To"},
			rows: [][]any{
				{"", "Border Security Seminar", "Zagreb", "2025-09-01", "2025-09-05"},
			},
		},
	}
}

func newTestImporter(t *testing.T) (*Importer, *storage.Storage) {
	t.Helper()

	cfg := &config.ServerConfig{DBPath: filepath.Join(t.TempDir(), "import-test.db")}
	store, err := storage.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	catalog, err := countries.Catalog()
	require.NoError(t, err)

	return New(store, countries.NewResolver(catalog), zap.NewNop().Sugar()), store
}

func TestValidate(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		result, err := Validate(buildWorkbook(t, validSheets()))
		require.NoError(t, err)
		assert.True(t, result.OK)
		assert.Empty(t, result.Missing)
	})

	t.Run("missing sheet", func(t *testing.T) {
		sheets := validSheets()
		delete(sheets, "Events")
		result, err := Validate(buildWorkbook(t, sheets))
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Contains(t, result.Missing, "Missing required sheet: Events")
	})

	t.Run("missing column", func(t *testing.T) {
		sheets := validSheets()
		sheets["Events"] = sheetData{
			header: []any{"Event", "Title", "Location", "Date From"},
		}
		result, err := Validate(buildWorkbook(t, sheets))
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Contains(t, result.Missing, "Sheet 'Events' missing column: 'Date To'")
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := Validate([]byte("not a workbook"))
		assert.Error(t, err)
	})
}

func TestInspect(t *testing.T) {
	sheets := validSheets()
	sheets["Events"] = sheetData{
		header: []any{"Event", "Title", "Location", "Date From", "Date To"},
		rows: [][]any{
			{"", "Autumn Workshop", "Sarajevo", "2025-11-10", "2025-11-12"},
			{"", "Border Security Seminar", "Zagreb", "2025-09-01", "2025-09-05"},
		},
	}
	sheets["Participant"] = sheetData{
		header: []any{"Name", "Position", "Country", "Gender", "DOB", "POB", "Birth Country", "Email", "Phone", "Event"},
		rows: [][]any{
			{"Amar Hodzic", "", "BiH", "M", "1990-04-12", "Mostar", "BiH", "", "", ""},
			{"", "", "", "", "", "", "", "", "", ""}, // blank row, skipped
			{"Kovac, Ivana", "", "Croatia", "F", "1985-11-02", "Split", "Croatia", "", "", ""},
		},
	}

	preview, err := Inspect(buildWorkbook(t, sheets))
	require.NoError(t, err)

	// Earliest start date wins.
	require.NotNil(t, preview.Event)
	assert.Equal(t, "Border Security Seminar", preview.Event.Title)

	require.Len(t, preview.Participants, 2)
	assert.Equal(t, "Amar HODZIC", preview.Participants[0].Name)
	assert.Equal(t, "Ivana KOVAC", preview.Participants[1].Name)
}

func TestRunDryRun(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()

	report, err := imp.Run(ctx, buildWorkbook(t, validSheets()), true)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Empty(t, report.Errors)

	// Nothing was written.
	page, err := store.ListParticipants(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRunCommit(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()

	report, err := imp.Run(ctx, buildWorkbook(t, validSheets()), false)
	require.NoError(t, err)

	assert.True(t, report.EventCreated)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 2, report.Assigned)
	assert.Empty(t, report.Errors)

	event, err := store.GetEvent(ctx, report.EventID)
	require.NoError(t, err)
	assert.Equal(t, "Border Security Seminar", event.Title)
	assert.NotEmpty(t, event.HostCountry)

	page, err := store.ListParticipants(ctx, "hodzic", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	p := page.Items[0]
	assert.Equal(t, "Amar HODZIC", p.Name)
	assert.Equal(t, "C027", p.RepresentingCountry)
	assert.Equal(t, "+38761123456", p.Phone)

	snapshots, err := store.ListEventParticipants(ctx, report.EventID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)

	// Reimporting the same workbook updates instead of duplicating.
	report, err = imp.Run(ctx, buildWorkbook(t, validSheets()), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Updated)

	page, err = store.ListParticipants(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestResolveEventStorageFailure(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()

	row := eventRow{
		Event:    "E0001",
		Title:    "Border Security Seminar",
		Location: "Zagreb",
		DateFrom: "2025-09-01",
		DateTo:   "2025-09-05",
	}

	// Unknown event ID on a healthy store means "create it".
	event, created, err := imp.resolveEvent(ctx, row)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "E0001", event.EID)

	// A real storage failure must surface instead of being read as
	// "event not found".
	require.NoError(t, store.Close())
	_, _, err = imp.resolveEvent(ctx, row)
	require.Error(t, err)
}

func TestRunRowErrors(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()

	sheets := validSheets()
	sheets["Participant"] = sheetData{
		header: []any{"Name", "Position", "Country", "Gender", "DOB", "POB", "Birth Country", "Email", "Phone", "Event"},
		rows: [][]any{
			{"Amar Hodzic", "", "BiH", "M", "1990-04-12", "Mostar", "BiH", "", "", ""},
			{"Lost Soul", "", "Atlantis", "M", "1990-01-01", "", "", "", "", ""},
			{"No Gender", "", "Croatia", "X", "1990-01-01", "", "", "", "", ""},
		},
	}

	report, err := imp.Run(ctx, buildWorkbook(t, sheets), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Reason, "Atlantis")
	assert.Contains(t, report.Errors[1].Reason, "gender")

	page, err := store.ListParticipants(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
