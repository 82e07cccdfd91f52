package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapeworks/harvester/internal"
)

var testFields = []string{"name", "location", "revenue", "employees", "timestamp"}

func record(name string) *internal.Record {
	return internal.NewRecord(testFields, []string{
		name, "Berlin", "$1M", "10", "2025-03-14 09:26:53",
	})
}

func TestFlush(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch is a no-op and leaves the file untouched", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		p := New(path)

		n, err := p.Flush(ctx, nil, ModeTruncate)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("truncate writes header then rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		p := New(path)

		n, err := p.Flush(ctx, []*internal.Record{record("Acme"), record("Beta")}, ModeTruncate)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "name,location,revenue,employees,timestamp", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "Acme,"))
		assert.True(t, strings.HasPrefix(lines[2], "Beta,"))
	})

	t.Run("append to a non-empty file never writes a second header", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		p := New(path)

		_, err := p.Flush(ctx, []*internal.Record{record("Acme")}, ModeTruncate)
		require.NoError(t, err)

		_, err = p.Flush(ctx, []*internal.Record{record("Beta")}, ModeAppend)
		require.NoError(t, err)
		_, err = p.Flush(ctx, []*internal.Record{record("Gamma")}, ModeAppend)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.Equal(t, 1, strings.Count(string(data), "name,location"))
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, 4)
	})

	t.Run("append to a missing file writes the header", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		p := New(path)

		_, err := p.Flush(ctx, []*internal.Record{record("Acme")}, ModeAppend)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "name,location"))
	})

	t.Run("header order follows the first record's field order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		p := New(path)

		r := internal.NewRecord(
			[]string{"b", "a"},
			[]string{"2", "1"},
		)
		_, err := p.Flush(ctx, []*internal.Record{r}, ModeTruncate)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Equal(t, "b,a", lines[0])
		assert.Equal(t, "2,1", lines[1])
	})

	t.Run("unwritable destination reports an error", func(t *testing.T) {
		p := New(filepath.Join(t.TempDir(), "missing", "out.csv"))

		_, err := p.Flush(ctx, []*internal.Record{record("Acme")}, ModeTruncate)
		assert.Error(t, err)
	})
}
