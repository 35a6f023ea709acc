package results_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imje/scheduled-helper/internal/results"
)

func TestSaveWritesLatestAndTimestamped(t *testing.T) {
	dir := t.TempDir()
	store, err := results.NewStore(dir)
	require.NoError(t, err)

	body := []byte(`{"results":[]}`)
	now := time.Date(2026, 10, 17, 9, 15, 0, 0, time.UTC)

	paths, err := store.Save(body, now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "news_results_latest.json"), paths.Latest)
	require.Equal(t, filepath.Join(dir, "news_results_20261017_091500.json"), paths.Timestamped)

	latest, err := os.ReadFile(paths.Latest)
	require.NoError(t, err)
	stamped, err := os.ReadFile(paths.Timestamped)
	require.NoError(t, err)
	require.Equal(t, body, latest)
	require.Equal(t, body, stamped)

	names := dirNames(t, dir)
	require.ElementsMatch(t, []string{"news_results_latest.json", "news_results_20261017_091500.json"}, names)
}

func TestSaveKeepsHistoryAndReplacesLatest(t *testing.T) {
	dir := t.TempDir()
	store, err := results.NewStore(dir)
	require.NoError(t, err)

	first := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	_, err = store.Save([]byte(`{"run":1}`), first)
	require.NoError(t, err)
	paths, err := store.Save([]byte(`{"run":2}`), first.Add(15*time.Minute))
	require.NoError(t, err)

	latest, err := os.ReadFile(paths.Latest)
	require.NoError(t, err)
	require.Equal(t, `{"run":2}`, string(latest))

	old, err := os.ReadFile(filepath.Join(dir, "news_results_20261017_090000.json"))
	require.NoError(t, err)
	require.Equal(t, `{"run":1}`, string(old))
}

func TestSaveSameSecondNamesAreUniqueAndOrdered(t *testing.T) {
	dir := t.TempDir()
	store, err := results.NewStore(dir)
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 9, 15, 0, 0, time.UTC)
	var stamped []string
	for i := 0; i < 3; i++ {
		paths, err := store.Save([]byte(`{}`), now)
		require.NoError(t, err)
		stamped = append(stamped, filepath.Base(paths.Timestamped))
	}

	require.Equal(t, []string{
		"news_results_20261017_091500.json",
		"news_results_20261017_091500_001.json",
		"news_results_20261017_091500_002.json",
	}, stamped)

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		require.Equal(t, stamped[i], e.Name)
	}
}

func TestSaveFailureLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := results.NewStore(dir)
	require.NoError(t, err)

	// A non-empty directory where the latest file should go makes the final
	// rename fail.
	blocker := filepath.Join(dir, results.LatestName)
	require.NoError(t, os.MkdirAll(blocker, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), []byte("x"), 0o644))

	_, err = store.Save([]byte(`{"results":[]}`), time.Now())
	require.Error(t, err)

	entries, err := store.List()
	require.NoError(t, err)
	require.Empty(t, entries)
	require.ElementsMatch(t, []string{results.LatestName}, dirNames(t, dir))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := results.NewStore(dir)
	require.NoError(t, err)

	_, err = store.Open(results.LatestName)
	require.True(t, errors.Is(err, results.ErrNotFound))

	paths, err := store.Save([]byte(`{"ok":true}`), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	f, err := store.Open(filepath.Base(paths.Timestamped))
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, string(data))

	for _, name := range []string{"../secret.json", "notes.txt", "news_results_latest.json.bak", ""} {
		_, err := store.Open(name)
		require.ErrorIs(t, err, results.ErrNotFound, name)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := results.NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "news_results_20260101_000000.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, results.LatestName), []byte("{}"), 0o644))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "news_results_20260101_000000.json", entries[0].Name)
	require.EqualValues(t, 2, entries[0].Size)
}

func TestIsOutputName(t *testing.T) {
	require.True(t, results.IsOutputName("news_results_latest.json"))
	require.True(t, results.IsOutputName("news_results_20261017_091500.json"))
	require.True(t, results.IsOutputName("news_results_20261017_091500_001.json"))
	require.False(t, results.IsOutputName("news_results_2026.json"))
	require.False(t, results.IsOutputName("../news_results_latest.json"))
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
