package filter

import (
	"testing"
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/stretchr/testify/require"
)

func rec(level corelog.Level, msg string) *corelog.Record {
	return &corelog.Record{Level: level, Message: msg}
}

// Scenario 5 from spec §8.
func TestCompositeAllMustPassScenario(t *testing.T) {
	c, err := NewComposite(AllMustPass, nil,
		NewLevelFilter(corelog.Warning, corelog.Fatal),
		NewKeywordFilter([]string{"CRITICAL"}, nil, true),
	)
	require.NoError(t, err)

	v1, _ := c.Apply(rec(corelog.Info, "CRITICAL x"))
	v2, _ := c.Apply(rec(corelog.Error, "normal"))
	v3, _ := c.Apply(rec(corelog.Error, "CRITICAL y"))

	require.Equal(t, Block, v1)
	require.Equal(t, Block, v2)
	require.Equal(t, Allow, v3)
}

// Scenario 6 from spec §8.
func TestRateLimitScenario(t *testing.T) {
	f := NewRateLimitFilter(2, 2)

	var verdicts []Verdict
	for i := 0; i < 5; i++ {
		v, _ := f.Apply(rec(corelog.Info, "x"))
		verdicts = append(verdicts, v)
	}
	require.Equal(t, []Verdict{Allow, Allow, Block, Block, Block}, verdicts)

	time.Sleep(1100 * time.Millisecond)
	v1, _ := f.Apply(rec(corelog.Info, "x"))
	v2, _ := f.Apply(rec(corelog.Info, "x"))
	require.Equal(t, Allow, v1)
	require.Equal(t, Allow, v2)
}

func TestAllMustPassInvariant(t *testing.T) {
	allAllow, _ := NewComposite(AllMustPass, nil, NewLevelFilter(corelog.Trace, corelog.Fatal))
	v, _ := allAllow.Apply(rec(corelog.Info, "x"))
	require.Equal(t, Allow, v)

	oneBlock, _ := NewComposite(AllMustPass, nil,
		NewLevelFilter(corelog.Trace, corelog.Fatal),
		NewLevelFilter(corelog.Error, corelog.Fatal),
	)
	v, _ = oneBlock.Apply(rec(corelog.Info, "x"))
	require.Equal(t, Block, v)
}

func TestAnyCanPassBlocksOnlyWhenAllBlock(t *testing.T) {
	c, _ := NewComposite(AnyCanPass, nil,
		NewLevelFilter(corelog.Error, corelog.Fatal),
		NewLevelFilter(corelog.Critical, corelog.Fatal),
	)
	v, _ := c.Apply(rec(corelog.Info, "x"))
	require.Equal(t, Block, v)

	v, _ = c.Apply(rec(corelog.Error, "x"))
	require.Equal(t, Allow, v)
}

func TestCompositeRejectsCycles(t *testing.T) {
	c, err := NewComposite(AllMustPass, nil, NewLevelFilter(corelog.Trace, corelog.Fatal))
	require.NoError(t, err)

	outer, err := NewComposite(AllMustPass, nil, c)
	require.NoError(t, err)

	err = c.AddChild(outer)
	require.ErrorIs(t, err, ErrCycle)
}

func TestFilterStatsMonotonicity(t *testing.T) {
	f := NewLevelFilter(corelog.Warning, corelog.Fatal)
	f.Apply(rec(corelog.Info, "x"))
	f.Apply(rec(corelog.Error, "x"))
	snap := f.Stats()
	require.Equal(t, snap.TotalProcessed, snap.Allowed+snap.Blocked+snap.Transformed)
	require.EqualValues(t, 2, snap.TotalProcessed)
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := Default()
	orig := NewLevelFilter(corelog.Warning, corelog.Error)
	sf, err := reg.Serialize(orig, Meta{Enabled: true, Priority: 5, Description: "d", Version: 1})
	require.NoError(t, err)
	require.Equal(t, "level", sf.Type)

	restored, meta, err := reg.Deserialize(sf)
	require.NoError(t, err)
	require.Equal(t, Meta{Enabled: true, Priority: 5, Description: "d", Version: 1}, meta)

	for _, r := range []*corelog.Record{
		rec(corelog.Info, "x"), rec(corelog.Warning, "x"), rec(corelog.Critical, "x"),
	} {
		origV, _ := orig.Apply(r)
		restoredV, _ := restored.Apply(r)
		require.Equal(t, origV, restoredV)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Deserialize(SerializedFilter{Type: "nope"})
	require.Error(t, err)
}

func TestQuickRejectComposition(t *testing.T) {
	c, _ := NewComposite(AllMustPass, nil, NewLevelFilter(corelog.Error, corelog.Fatal))
	require.True(t, c.QuickReject(corelog.Info))
	require.False(t, c.QuickReject(corelog.Error))

	c2, _ := NewComposite(AnyCanPass, nil,
		NewLevelFilter(corelog.Error, corelog.Fatal),
		NewLevelFilter(corelog.Critical, corelog.Fatal),
	)
	require.True(t, c2.QuickReject(corelog.Info))
	require.False(t, c2.QuickReject(corelog.Error))
}
