package events_test

import (
	"testing"
	"time"

	"adboard/events"
	"adboard/models"
	"adboard/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *events.Service {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return events.NewService(st)
}

func TestParseGermanDate(t *testing.T) {
	tests := []struct {
		name          string
		date          string
		expected      time.Time
		expectedRange bool
		expectErr     bool
	}{
		{
			name:     "simple date",
			date:     "20.10.2025",
			expected: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "range takes the end date",
			date:          "06.–09.10.2025",
			expected:      time.Date(2025, 10, 9, 0, 0, 0, 0, time.UTC),
			expectedRange: true,
		},
		{
			name:     "month name only",
			date:     "September 2026",
			expected: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "month name lowercase with umlaut",
			date:     "märz 2026",
			expected: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "surrounding whitespace",
			date:     "  20.10.2025  ",
			expected: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "unparseable",
			date:      "sometime soon",
			expectErr: true,
		},
		{
			name:      "empty",
			date:      "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, isRange, err := events.ParseGermanDate(tt.date)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
			assert.Equal(t, tt.expectedRange, isRange)
		})
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("parses valid rows", func(t *testing.T) {
		csv := `Name,Datum,Ort
DMEXCO,17.09.2025,Köln
"OMR Festival",06.–09.05.2025,Hamburg
Cannes Lions,Juni 2026,Cannes`

		parsed := events.ParseCSV(csv)
		require.Len(t, parsed, 3)

		assert.Equal(t, "csv-event-1", parsed[0].Id)
		assert.Equal(t, "DMEXCO", parsed[0].Title)
		assert.Equal(t, "Köln", parsed[0].Location)
		assert.Equal(t, "Advertising and marketing event in Köln", parsed[0].Description)
		assert.Equal(t, "2025-09-17T00:00:00Z", parsed[0].StartDate)
		assert.Equal(t, parsed[0].StartDate, parsed[0].EndDate)

		assert.Equal(t, "OMR Festival", parsed[1].Title)
		assert.Equal(t, "2025-05-09T00:00:00Z", parsed[1].StartDate)
		assert.Equal(t, "2025-05-10T00:00:00Z", parsed[1].EndDate)

		assert.Equal(t, "2026-06-01T00:00:00Z", parsed[2].StartDate)
	})

	t.Run("skips malformed rows", func(t *testing.T) {
		csv := `Name,Datum,Ort
OnlyOneField
Valid,20.10.2025,Berlin
,20.10.2025,Berlin
BadDate,someday,Berlin`

		parsed := events.ParseCSV(csv)
		require.Len(t, parsed, 1)
		assert.Equal(t, "Valid", parsed[0].Title)
	})

	t.Run("quoted location keeps its comma", func(t *testing.T) {
		csv := `Name,Datum,Ort
Messe,20.10.2025,"Düsseldorf, Halle 3"`

		parsed := events.ParseCSV(csv)
		require.Len(t, parsed, 1)
		assert.Equal(t, "Düsseldorf, Halle 3", parsed[0].Location)
	})

	t.Run("header only yields nothing", func(t *testing.T) {
		assert.Empty(t, events.ParseCSV("Name,Datum,Ort"))
	})
}

func TestExportCSV(t *testing.T) {
	exported := events.ExportCSV([]models.CalendarEvent{
		{Title: "DMEXCO", Location: "Köln", StartDate: "2025-09-17T00:00:00Z", EndDate: "2025-09-17T00:00:00Z"},
		{Title: "Messe", Location: "Düsseldorf, Halle 3", StartDate: "2025-10-20T00:00:00Z", EndDate: "2025-10-21T00:00:00Z"},
	})

	assert.Equal(t, "Name,Datum,Ort\nDMEXCO,17.09.2025,Köln\nMesse,20.10.2025,\"Düsseldorf, Halle 3\"\n", exported)

	// Export parses back to the same events
	parsed := events.ParseCSV(exported)
	require.Len(t, parsed, 2)
	assert.Equal(t, "DMEXCO", parsed[0].Title)
	assert.Equal(t, "2025-09-17T00:00:00Z", parsed[0].StartDate)
	assert.Equal(t, "Düsseldorf, Halle 3", parsed[1].Location)
}

func TestServiceCRUD(t *testing.T) {
	service := newService(t)

	t.Run("create validates required fields", func(t *testing.T) {
		_, err := service.Create("", "", "Berlin", "2025-10-20T00:00:00Z", "2025-10-21T00:00:00Z")
		assert.ErrorIs(t, err, events.ErrMissingField)

		_, err = service.Create("Event", "", "Berlin", "not a date", "2025-10-21T00:00:00Z")
		assert.Error(t, err)
	})

	t.Run("create assigns sequential manual ids", func(t *testing.T) {
		first, err := service.Create("First", "", "Berlin", "2025-10-20T00:00:00Z", "2025-10-21T00:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, "manual-event-1", first.Id)
		assert.Equal(t, "Event in Berlin", first.Description)

		second, err := service.Create("Second", "Own description", "Hamburg", "2025-09-01T00:00:00Z", "2025-09-02T00:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, "manual-event-2", second.Id)
		assert.Equal(t, "Own description", second.Description)
	})

	t.Run("list is sorted ascending by start date", func(t *testing.T) {
		listed := service.List()
		require.Len(t, listed, 2)
		assert.Equal(t, "Second", listed[0].Title)
		assert.Equal(t, "First", listed[1].Title)
	})

	t.Run("update replaces the event", func(t *testing.T) {
		updated, err := service.Update("manual-event-1", models.CalendarEvent{
			Title:     "First renamed",
			Location:  "Berlin",
			StartDate: "2025-10-20T00:00:00Z",
			EndDate:   "2025-10-21T00:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, "manual-event-1", updated.Id)
		assert.Equal(t, "First renamed", updated.Title)
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, err := service.Update("missing", models.CalendarEvent{})
		assert.ErrorIs(t, err, events.ErrNotFound)
	})

	t.Run("delete removes the event", func(t *testing.T) {
		require.NoError(t, service.Delete("manual-event-2"))
		assert.Len(t, service.List(), 1)
		assert.ErrorIs(t, service.Delete("manual-event-2"), events.ErrNotFound)
	})

	t.Run("replace all swaps the stored set", func(t *testing.T) {
		require.NoError(t, service.ReplaceAll([]models.CalendarEvent{
			{Id: "csv-event-1", Title: "Imported", StartDate: "2026-01-01T00:00:00Z", EndDate: "2026-01-02T00:00:00Z"},
		}))
		listed := service.List()
		require.Len(t, listed, 1)
		assert.Equal(t, "Imported", listed[0].Title)
	})
}
