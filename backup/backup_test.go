package backup_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarlog/cycle-engine/backup"
	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/cycle/store"
)

var exportedAt = time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)

func seeded(t *testing.T) *store.Memory {
	mem := store.NewMemory()
	ctx := context.Background()
	_, err := mem.Insert(ctx, cycle.Cycle{StartDate: cycle.NewDay(2024, time.January, 1), EndDate: cycle.NewDay(2024, time.January, 5).Ptr()})
	require.NoError(t, err)
	_, err = mem.Insert(ctx, cycle.Cycle{StartDate: cycle.NewDay(2024, time.January, 29)})
	require.NoError(t, err)
	return mem
}

func TestExportImport_RoundTrip(t *testing.T) {
	for _, format := range []backup.Format{backup.FormatJSON, backup.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			src := seeded(t)

			data, err := backup.Export(ctx, src, format, exportedAt)
			require.NoError(t, err)

			dst := store.NewMemory()
			_, err = dst.Insert(ctx, cycle.Cycle{StartDate: 1})
			require.NoError(t, err)

			n, err := backup.Import(ctx, dst, data, format)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			want, err := src.ListAll(ctx)
			require.NoError(t, err)
			got, err := dst.ListAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExport_JSONShape(t *testing.T) {
	data, err := backup.Export(context.Background(), seeded(t), backup.FormatJSON, exportedAt)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"version": 1,
		"exported_at": "2024-03-01T12:30:00Z",
		"cycles": [
			{"id": 2, "start_date": "2024-01-29"},
			{"id": 1, "start_date": "2024-01-01", "end_date": "2024-01-05"}
		]
	}`, string(data))
}

func TestExport_YAMLOmitsAbsentEnd(t *testing.T) {
	data, err := backup.Export(context.Background(), seeded(t), backup.FormatYAML, exportedAt)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "start_date: \"2024-01-29\"")
	assert.Equal(t, 1, strings.Count(text, "end_date:"))
}

func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"newer version", `{"version": 2, "cycles": []}`, backup.ErrUnsupportedVersion},
		{"bad date", `{"version": 1, "cycles": [{"id": 1, "start_date": "yesterday"}]}`, cycle.ErrInvalidCycle},
		{"end before start", `{"version": 1, "cycles": [{"id": 1, "start_date": "2024-01-05", "end_date": "2024-01-01"}]}`, cycle.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backup.Decode([]byte(tt.data), backup.FormatJSON)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestImport_InvalidLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	dst := seeded(t)

	_, err := backup.Import(ctx, dst, []byte(`{"version": 1, "cycles": [{"id": 1, "start_date": "2024-01-05", "end_date": "2024-01-01"}]}`), backup.FormatJSON)
	require.Error(t, err)

	all, err := dst.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]backup.Format{"": backup.FormatJSON, "JSON": backup.FormatJSON, "yml": backup.FormatYAML, "yaml": backup.FormatYAML} {
		got, err := backup.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := backup.ParseFormat("xml")
	assert.ErrorIs(t, err, backup.ErrUnknownFormat)
	assert.Equal(t, "application/yaml", backup.FormatYAML.ContentType())
}
