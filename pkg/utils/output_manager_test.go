package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRunOutputDir(t *testing.T) {
	om := NewOutputManager(t.TempDir())

	dir, err := om.CreateRunOutputDir("run-1")
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// creating it again is a no-op
	again, err := om.CreateRunOutputDir("run-1")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestGetOutputFilePathStripsDirectories(t *testing.T) {
	om := NewOutputManager(t.TempDir())

	path, err := om.GetOutputFilePath("run-1", "../../escape.csv")
	require.NoError(t, err)
	assert.Equal(t, "escape.csv", filepath.Base(path))
	assert.Contains(t, path, "run-1")
}

func TestGetFileType(t *testing.T) {
	om := NewOutputManager(".")

	assert.Equal(t, "csv", om.GetFileType("data_relevant.csv"))
	assert.Equal(t, "json", om.GetFileType("run_report.JSON"))
	assert.Equal(t, "parquet", om.GetFileType("snapshot.parquet"))
	assert.Equal(t, "chart", om.GetFileType("pca.png"))
	assert.Equal(t, "database", om.GetFileType("runs.db"))
	assert.Equal(t, "unknown", om.GetFileType("notes.txt"))
}

func TestGetFileSize(t *testing.T) {
	dir := t.TempDir()
	om := NewOutputManager(dir)

	path := filepath.Join(dir, "f.csv")
	require.NoError(t, os.WriteFile(path, []byte("abcde"), 0644))

	size, err := om.GetFileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = om.GetFileSize(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
