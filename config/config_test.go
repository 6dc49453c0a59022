package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	d := Default()
	d.Outputs = append(d.Outputs, OutputSpec{Name: "app-file", Type: "file", Enabled: true, MinLevel: corelog.Warning})

	require.NoError(t, SaveJSON(path, d))
	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	require.Equal(t, d, loaded)
}

func TestYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	d := Default()
	require.NoError(t, SaveYAML(path, d))
	loaded, err := LoadYAML(path)
	require.NoError(t, err)
	require.Equal(t, d, loaded)
}

func TestValidateRejectsBadOverflowPolicy(t *testing.T) {
	d := Default()
	d.Manager.OverflowPolicy = "explode"
	require.Error(t, Validate(d))
}

func TestValidateRejectsDuplicateOutputNames(t *testing.T) {
	d := Default()
	d.Outputs = append(d.Outputs, OutputSpec{Name: "console", Type: "console"})
	require.Error(t, Validate(d))
}

func TestValidateRejectsUnknownOutputType(t *testing.T) {
	d := Default()
	d.Outputs[0].Type = "syslog"
	require.Error(t, Validate(d))
}

func TestWatchTriggersReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(path, Default()))

	reloaded := make(chan Document, 1)
	w, err := Watch(path, LoadJSON, func(d Document) { reloaded <- d }, nil)
	require.NoError(t, err)
	defer w.Close()

	updated := Default()
	updated.Global.Version = 2
	require.NoError(t, SaveJSON(path, updated))

	select {
	case d := <-reloaded:
		require.Equal(t, 2, d.Global.Version)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload callback after writing the config file")
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(path, Default()))

	reloaded := make(chan Document, 1)
	w, err := Watch(path, LoadJSON, func(d Document) { reloaded <- d }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("should not reload for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
