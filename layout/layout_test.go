package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntSushi/wgb"
	"github.com/BurntSushi/wgb/internal/wltest"
	"github.com/BurntSushi/wgb/outputmgmt"
)

func newManager(t *testing.T, heads ...wltest.Head) *outputmgmt.Manager {
	t.Helper()
	c, err := wgb.NewConnNet(wltest.New(heads...))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	m, err := outputmgmt.Init(c, time.Second)
	require.NoError(t, err)
	m.Tick = 5 * time.Millisecond
	ok, err := m.WaitReady(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	return m
}

// find returns the entry of 'plan' for head 'name'.
func find(t *testing.T, plan []outputmgmt.HeadConfig, name string) outputmgmt.HeadConfig {
	t.Helper()
	for _, hc := range plan {
		if hc.Head.Name == name {
			return hc
		}
	}
	t.Fatalf("head %s not in plan", name)
	return outputmgmt.HeadConfig{}
}

func TestBestMode(t *testing.T) {
	m := newManager(t, wltest.Desk()...)

	dp := m.Head("DP-1")
	assert.Same(t, dp.Modes[0], BestMode(dp), "preferred beats a faster mode of the same size")

	dp.Modes[0].Finished = true
	assert.Same(t, dp.Modes[1], BestMode(dp), "then the fastest")

	hdmi := m.Head("HDMI-A-1")
	assert.Same(t, hdmi.Modes[0], BestMode(hdmi))

	empty := newManager(t, wltest.Head{Name: "Virtual-1", Current: -1}).Head("Virtual-1")
	assert.Nil(t, BestMode(empty))
}

func TestPickBest(t *testing.T) {
	m := newManager(t, wltest.Desk()...)

	choice, ok := PickBest(m.Heads())
	require.True(t, ok)
	assert.Equal(t, "eDP-1", choice.Head.Name, "enabled heads come first")
	assert.Equal(t, int32(60008), choice.Mode.Refresh)

	// only disabled heads left: the largest wins
	choice, ok = PickBest([]*outputmgmt.Head{m.Head("DP-1")})
	require.True(t, ok)
	assert.Equal(t, "DP-1", choice.Head.Name)

	_, ok = PickBest(nil)
	assert.False(t, ok)
}

func TestPPIAndScale(t *testing.T) {
	m := newManager(t, wltest.Desk()...)
	edp := m.Head("eDP-1")

	ppi, ok := PPI(edp.Modes[0], edp.PhysicalSize)
	require.True(t, ok)
	assert.InDelta(t, 141.7, ppi, 0.1)
	assert.Equal(t, 1.25, HeadScale(edp, edp.Modes[0], DefaultTargetPPI, DefaultScaleStep))

	dp := m.Head("DP-1")
	assert.Equal(t, 1.0, HeadScale(dp, dp.Modes[0], 0, 0))

	_, ok = PPI(edp.Modes[0], outputmgmt.Size{})
	assert.False(t, ok)
	_, ok = PPI(nil, edp.PhysicalSize)
	assert.False(t, ok)

	tests := []struct {
		ppi, target, step, want float64
	}{
		{218, 109, 0.125, 2},
		{50, 109, 0.125, 1},
		{163.5, 109, 0.25, 1.5},
		{163.5, 0, 0, 1.5},
		{120, 109, 0.125, 1.125},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Scale(tt.ppi, tt.target, tt.step), "%+v", tt)
	}
}

func TestIsInternal(t *testing.T) {
	assert.True(t, IsInternal("eDP-1", nil))
	assert.True(t, IsInternal("edp-2", nil))
	assert.True(t, IsInternal("LVDS-1", nil))
	assert.False(t, IsInternal("DP-1", nil))
	assert.False(t, IsInternal("HDMI-A-1", nil))
	assert.True(t, IsInternal("DSI-1", []string{"DSI"}))
	assert.False(t, IsInternal("eDP-1", []string{"DSI"}))
	assert.False(t, IsInternal("eDP-1", []string{""}))
}

func TestCommonResolutions(t *testing.T) {
	m := newManager(t, wltest.Desk()...)
	assert.Equal(t, []outputmgmt.ModeRequest{{Width: 1920, Height: 1080}},
		CommonResolutions(m.Head("DP-1"), m.Head("HDMI-A-1")))
	assert.Equal(t, []outputmgmt.ModeRequest{{Width: 1920, Height: 1080}, {Width: 1280, Height: 720}},
		CommonResolutions(m.Head("HDMI-A-1"), m.Head("HDMI-A-1")))
}

func TestBest(t *testing.T) {
	m := newManager(t, wltest.Desk()...)
	choice, scale, plan, err := Best(m.Heads(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "eDP-1", choice.Head.Name)
	assert.Equal(t, 1.25, scale)

	require.Len(t, plan, 3)
	edp := find(t, plan, "eDP-1")
	assert.True(t, edp.Enabled)
	assert.Same(t, choice.Mode, edp.Mode)
	assert.Equal(t, &outputmgmt.Position{}, edp.Position)
	assert.Equal(t, 1.25, *edp.Scale)
	assert.False(t, find(t, plan, "DP-1").Enabled)
	assert.False(t, find(t, plan, "HDMI-A-1").Enabled)

	_, err = m.Configure(plan)
	assert.NoError(t, err)

	_, _, _, err = Best(nil, Options{})
	assert.ErrorIs(t, err, ErrNoHeads)
}

func TestArrange(t *testing.T) {
	m := newManager(t, wltest.Desk()...)
	heads := m.Heads()
	dp, edp := m.Head("DP-1"), m.Head("eDP-1")

	plan, err := Arrange(InternalOnly, heads, Options{})
	require.NoError(t, err)
	assert.True(t, find(t, plan, "eDP-1").Enabled)
	assert.Nil(t, find(t, plan, "eDP-1").Scale)
	assert.False(t, find(t, plan, "DP-1").Enabled)

	plan, err = Arrange(ExternalOnly, heads, Options{})
	require.NoError(t, err)
	ext := find(t, plan, "DP-1")
	assert.True(t, ext.Enabled)
	assert.Same(t, dp.Modes[0], ext.Mode)
	assert.Equal(t, 1.0, *ext.Scale)
	assert.False(t, find(t, plan, "eDP-1").Enabled)

	plan, err = Arrange(ExtendRight, heads, Options{})
	require.NoError(t, err)
	assert.Equal(t, &outputmgmt.Position{X: 0}, find(t, plan, "eDP-1").Position)
	assert.Equal(t, &outputmgmt.Position{X: 1920}, find(t, plan, "DP-1").Position)
	assert.False(t, find(t, plan, "HDMI-A-1").Enabled)

	plan, err = Arrange(ExtendLeft, heads, Options{})
	require.NoError(t, err)
	assert.Equal(t, &outputmgmt.Position{X: 0}, find(t, plan, "DP-1").Position)
	assert.Equal(t, &outputmgmt.Position{X: 2560}, find(t, plan, "eDP-1").Position)

	plan, err = Arrange(Mirrored, heads, Options{})
	require.NoError(t, err)
	assert.Same(t, edp.Modes[0], find(t, plan, "eDP-1").Mode)
	assert.Same(t, dp.Modes[3], find(t, plan, "DP-1").Mode)
	assert.Equal(t, find(t, plan, "eDP-1").Position, find(t, plan, "DP-1").Position)

	for _, kind := range Kinds() {
		plan, err := Arrange(kind, heads, Options{})
		require.NoError(t, err, kind)
		_, err = m.Configure(plan)
		assert.NoError(t, err, kind)
	}

	_, err = Arrange("diagonal", heads, Options{})
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestArrangeMissingHeads(t *testing.T) {
	desk := wltest.Desk()
	m := newManager(t, desk[0], desk[2])

	_, err := Arrange(InternalOnly, m.Heads(), Options{})
	assert.ErrorIs(t, err, ErrNoInternal)
	_, err = Arrange(ExtendRight, m.Heads(), Options{})
	assert.ErrorIs(t, err, ErrNoInternal)

	// with a custom prefix DP-1 counts as internal
	plan, err := Arrange(ExtendRight, m.Heads(), Options{InternalPrefixes: []string{"DP"}})
	require.NoError(t, err)
	assert.Equal(t, &outputmgmt.Position{X: 2560}, find(t, plan, "HDMI-A-1").Position)

	m = newManager(t, desk[1])
	_, err = Arrange(ExternalOnly, m.Heads(), Options{})
	assert.ErrorIs(t, err, ErrNoExternal)
	_, err = Arrange(Mirrored, m.Heads(), Options{})
	assert.ErrorIs(t, err, ErrNoExternal)
}
