package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/stretchr/testify/require"
)

func record(level corelog.Level, msg string) *corelog.Record {
	return &corelog.Record{Level: level, Message: msg}
}

func TestFileSinkLazyCreateAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "app.log")
	sink := NewFileSink(FileConfig{Path: path, AutoFlush: true})
	defer sink.Close()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	result := sink.Write(record(corelog.Info, "hello"))
	require.Equal(t, Success, result)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
	require.EqualValues(t, len(data), sink.CurrentSize())
}

func TestFileSinkMinLevelFilters(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(FileConfig{Path: filepath.Join(dir, "app.log"), MinLevel: corelog.Warning, AutoFlush: true})
	defer sink.Close()

	require.Equal(t, Filtered, sink.Write(record(corelog.Info, "skip me")))
	require.Equal(t, Success, sink.Write(record(corelog.Error, "keep me")))

	snap := sink.Stats()
	require.EqualValues(t, 2, snap.TotalLogs)
	require.EqualValues(t, 1, snap.Successful)
	require.EqualValues(t, 1, snap.FilteredCount)
}

func TestFileSinkRotateStartsFreshFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	sink := NewFileSink(FileConfig{Path: path, AutoFlush: true})
	defer sink.Close()

	sink.Write(record(corelog.Info, "before rotation"))
	require.Greater(t, sink.CurrentSize(), int64(0))

	require.NoError(t, os.Rename(path, path+".1"))
	require.NoError(t, sink.Rotate())
	require.EqualValues(t, 0, sink.CurrentSize())

	sink.Write(record(corelog.Info, "after rotation"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "after rotation")
	require.NotContains(t, string(data), "before rotation")
}

func TestConsoleSinkFilterBlocks(t *testing.T) {
	sink := NewConsoleSink(ConsoleConfig{})
	sink.SetFilter(filter.NewLevelFilter(corelog.Error, corelog.Fatal))

	require.Equal(t, Filtered, sink.Write(record(corelog.Info, "quiet")))
	snap := sink.Stats()
	require.EqualValues(t, 1, snap.FilteredCount)
}

func TestConsoleSinkDisabledIsUnavailable(t *testing.T) {
	sink := NewConsoleSink(ConsoleConfig{})
	sink.SetEnabled(false)
	require.Equal(t, Unavailable, sink.Write(record(corelog.Info, "x")))
}

func TestManagerSequentialFanOut(t *testing.T) {
	dir := t.TempDir()
	f1 := NewFileSink(FileConfig{Path: filepath.Join(dir, "a.log"), AutoFlush: true})
	f2 := NewFileSink(FileConfig{Path: filepath.Join(dir, "b.log"), AutoFlush: true})
	defer f1.Close()
	defer f2.Close()

	m := NewManager(Sequential)
	m.AddSink(f1)
	m.AddSink(f2)

	require.NoError(t, m.Write(context.Background(), record(corelog.Info, "fan out")))

	for _, p := range []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		require.Contains(t, string(data), "fan out")
	}
}

func TestManagerParallelFanOut(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Parallel)
	var sinks []*FileSink
	for i := 0; i < 4; i++ {
		s := NewFileSink(FileConfig{Path: filepath.Join(dir, string(rune('a'+i))+".log"), AutoFlush: true})
		sinks = append(sinks, s)
		m.AddSink(s)
	}
	defer func() {
		for _, s := range sinks {
			s.Close()
		}
	}()

	require.NoError(t, m.Write(context.Background(), record(corelog.Info, "parallel")))
	stats := m.Stats()
	require.EqualValues(t, 4, stats.TotalDispatched)
}

func TestManagerAsyncFlushWaitsForCompletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "async.log")
	s := NewFileSink(FileConfig{Path: path, AutoFlush: true})
	defer s.Close()

	m := NewManager(Async)
	m.AddSink(s)

	require.NoError(t, m.Write(context.Background(), record(corelog.Info, "async line")))
	m.Flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "async line")
}

func TestManagerRemoveAndGetSink(t *testing.T) {
	m := NewManager(Sequential)
	s := NewConsoleSink(ConsoleConfig{Name: "console1"})
	m.AddSink(s)

	got, ok := m.GetSink("console1")
	require.True(t, ok)
	require.Same(t, s, got)

	require.NoError(t, m.RemoveSink("console1"))
	_, ok = m.GetSink("console1")
	require.False(t, ok)

	require.Error(t, m.RemoveSink("console1"))
}
