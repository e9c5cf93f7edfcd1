package intake

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0644))
}

func TestParseName(t *testing.T) {
	p, err := ParseName("LIMS01_J42_240315_0930.new.json")
	require.NoError(t, err)
	assert.Equal(t, "LIMS01", p.OriginID)
	assert.Equal(t, "J42", p.OriginJobID)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local), p.Created)
}

func TestParseNameRejects(t *testing.T) {
	names := []string{
		"A_B_240315.new.json",
		"A_B_240315_0930_X.new.json",
		"A__240315_0930.new.json",
		"A_B_241315_0930.new.json",
		"A_B_240315_9930.new.json",
		"nounderscores.new.json",
	}
	for _, n := range names {
		t.Run(n, func(t *testing.T) {
			_, err := ParseName(n)
			require.Error(t, err)
			var ne *NamingError
			assert.True(t, errors.As(err, &ne))
			assert.Equal(t, n, ne.Name)
		})
	}
}

func TestParseNameOnlyUsesTextBeforeFirstDot(t *testing.T) {
	p, err := ParseName("A_B_240315_0930.x_y.new.json")
	require.NoError(t, err)
	assert.Equal(t, "A", p.OriginID)
}

func TestFormatNameRoundTrip(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 0, 0, time.Local)
	name := FormatName("ORG", "JOB7", ts)
	assert.Equal(t, "ORG_JOB7_231231_2359.new.json", name)

	p, err := ParseName(name)
	require.NoError(t, err)
	assert.Equal(t, ts, p.Created)
}

func TestScanNewFilesSortsByTimestamp(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Z_late_240102_0800.new.json")
	touch(t, dir, "A_early_240101_0800.new.json")
	touch(t, dir, "B_tie_240101_0900.new.json")
	touch(t, dir, "C_tie_240101_0900.new.json")
	touch(t, dir, "A_done_240101_0700.prc.json")
	touch(t, dir, "readme.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "X_Y_240101_0600.new.json"), 0755))

	tr := NewTracker(dir, logging.Discard())
	files, namingErrs, err := tr.ScanNewFiles()
	require.NoError(t, err)
	assert.Empty(t, namingErrs)

	var jobs []string
	for _, f := range files {
		jobs = append(jobs, f.OriginJobID)
		assert.Equal(t, model.MarkerNew, f.State)
	}
	assert.Equal(t, []string{"early", "tie", "tie", "late"}, jobs)
	assert.Equal(t, "B", files[1].OriginID)
	assert.Equal(t, "C", files[2].OriginID)
}

func TestScanNewFilesReportsBadNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_ok_240101_0800.new.json")
	touch(t, dir, "broken.new.json")

	tr := NewTracker(dir, logging.Discard())
	files, namingErrs, err := tr.ScanNewFiles()
	require.NoError(t, err)
	assert.Len(t, files, 1)
	require.Len(t, namingErrs, 1)

	_, err = tr.ListNewFiles()
	var ne *NamingError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "broken.new.json", ne.Name)

	// The bad file is left where it was.
	_, statErr := os.Stat(filepath.Join(dir, "broken.new.json"))
	assert.NoError(t, statErr)
}

func TestTransitionLifecycle(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_B_240101_0800.new.json")
	tr := NewTracker(dir, logging.Discard())
	files, err := tr.ListNewFiles()
	require.NoError(t, err)
	f := files[0]

	path, err := tr.Transition(f, model.MarkerNew, model.MarkerLocked)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "A_B_240101_0800.lck.json"), path)
	assert.Equal(t, path, f.Path())
	assert.Equal(t, model.MarkerLocked, f.State)

	path, err = tr.Transition(f, model.MarkerLocked, model.MarkerErrorDeserialization)
	require.NoError(t, err)
	assert.Equal(t, "A_B_240101_0800.error-deserialization.json", filepath.Base(path))
	assert.FileExists(t, path)
}

func TestTransitionTwiceFailsOnMissingSource(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_B_240101_0800.new.json")
	tr := NewTracker(dir, logging.Discard())

	first, err := tr.ListNewFiles()
	require.NoError(t, err)
	second, err := tr.ListNewFiles()
	require.NoError(t, err)

	_, err = tr.Transition(first[0], model.MarkerNew, model.MarkerLocked)
	require.NoError(t, err)

	_, err = tr.Transition(second[0], model.MarkerNew, model.MarkerLocked)
	assert.ErrorIs(t, err, ErrSourceMissing)
	assert.Equal(t, model.MarkerNew, second[0].State)

	// Same handle again: its new-marked source is gone too.
	_, err = tr.Transition(first[0], model.MarkerNew, model.MarkerLocked)
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_B_240101_0800.new.json")
	tr := NewTracker(dir, logging.Discard())
	files, err := tr.ListNewFiles()
	require.NoError(t, err)

	_, err = tr.Transition(files[0], model.MarkerNew, model.MarkerProcessed)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.FileExists(t, filepath.Join(dir, "A_B_240101_0800.new.json"))
}

func TestTransitionRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_B_240101_0800.new.json")
	touch(t, dir, "A_B_240101_0800.lck.json")
	tr := NewTracker(dir, logging.Discard())
	files, err := tr.ListNewFiles()
	require.NoError(t, err)

	_, err = tr.Transition(files[0], model.MarkerNew, model.MarkerLocked)
	assert.ErrorIs(t, err, ErrTargetExists)
}

func TestSaveReplacesContent(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_B_240101_0800.new.json")
	tr := NewTracker(dir, logging.Discard())
	files, err := tr.ListNewFiles()
	require.NoError(t, err)

	require.NoError(t, tr.Save(files[0], []byte(`{"ok":true}`)))
	got, err := tr.Read(files[0])
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}
