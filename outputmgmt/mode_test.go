package outputmgmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHead builds a head owning copies of 'modes'. A negative
// refresh leaves it unknown.
func testHead(modes ...Mode) *Head {
	h := &Head{Name: "test"}
	for i := range modes {
		mode := modes[i]
		mode.head = h
		mode.HasRefresh = mode.Refresh >= 0
		if !mode.HasRefresh {
			mode.Refresh = 0
		}
		h.Modes = append(h.Modes, &mode)
	}
	return h
}

func TestFindMode(t *testing.T) {
	tests := []struct {
		name  string
		modes []Mode
		req   ModeRequest
		want  int // index into modes, -1 for nil
	}{
		{
			name: "preferred wins without refresh",
			modes: []Mode{
				{Width: 2560, Height: 1440, Refresh: 143912},
				{Width: 2560, Height: 1440, Refresh: 59951, Preferred: true},
			},
			req:  ModeRequest{Width: 2560, Height: 1440},
			want: 1,
		},
		{
			name: "highest refresh without preferred",
			modes: []Mode{
				{Width: 2560, Height: 1440, Refresh: 59951},
				{Width: 2560, Height: 1440, Refresh: 143912},
				{Width: 2560, Height: 1440, Refresh: 120000},
			},
			req:  ModeRequest{Width: 2560, Height: 1440},
			want: 1,
		},
		{
			name: "first when no refresh is known",
			modes: []Mode{
				{Width: 800, Height: 600, Refresh: -1},
				{Width: 800, Height: 600, Refresh: -1},
			},
			req:  ModeRequest{Width: 800, Height: 600},
			want: 0,
		},
		{
			name: "exact refresh beats preferred",
			modes: []Mode{
				{Width: 1920, Height: 1080, Refresh: 60000, Preferred: true},
				{Width: 1920, Height: 1080, Refresh: 50000},
			},
			req:  ModeRequest{Width: 1920, Height: 1080, Refresh: 50000},
			want: 1,
		},
		{
			name: "nearest refresh",
			modes: []Mode{
				{Width: 2560, Height: 1440, Refresh: 59951, Preferred: true},
				{Width: 2560, Height: 1440, Refresh: 143912},
				{Width: 2560, Height: 1440, Refresh: 120000},
			},
			req:  ModeRequest{Width: 2560, Height: 1440, Refresh: 144000},
			want: 1,
		},
		{
			name: "nearest refresh below",
			modes: []Mode{
				{Width: 2560, Height: 1440, Refresh: 59951},
				{Width: 2560, Height: 1440, Refresh: 143912},
				{Width: 2560, Height: 1440, Refresh: 120000},
			},
			req:  ModeRequest{Width: 2560, Height: 1440, Refresh: 100000},
			want: 2,
		},
		{
			name: "ties go to the first",
			modes: []Mode{
				{Width: 1920, Height: 1080, Refresh: 61000},
				{Width: 1920, Height: 1080, Refresh: 59000},
			},
			req:  ModeRequest{Width: 1920, Height: 1080, Refresh: 60000},
			want: 0,
		},
		{
			name: "unknown refresh is never nearest",
			modes: []Mode{
				{Width: 1920, Height: 1080, Refresh: -1},
				{Width: 1920, Height: 1080, Refresh: 30000},
			},
			req:  ModeRequest{Width: 1920, Height: 1080, Refresh: 60000},
			want: 1,
		},
		{
			name: "first when no candidate knows its refresh",
			modes: []Mode{
				{Width: 1024, Height: 768, Refresh: -1},
				{Width: 1024, Height: 768, Refresh: -1},
			},
			req:  ModeRequest{Width: 1024, Height: 768, Refresh: 60000},
			want: 0,
		},
		{
			name: "resolution must match",
			modes: []Mode{
				{Width: 1920, Height: 1080, Refresh: 60000, Preferred: true},
				{Width: 1080, Height: 1920, Refresh: 60000},
			},
			req:  ModeRequest{Width: 1920, Height: 1200},
			want: -1,
		},
	}
	for _, tt := range tests {
		h := testHead(tt.modes...)
		got := h.FindMode(tt.req)
		if tt.want < 0 {
			assert.Nil(t, got, tt.name)
			continue
		}
		assert.Same(t, h.Modes[tt.want], got, tt.name)
	}
}

func TestFindModeSkipsFinished(t *testing.T) {
	h := testHead(
		Mode{Width: 1920, Height: 1080, Refresh: 60000, Preferred: true},
		Mode{Width: 1920, Height: 1080, Refresh: 48000},
	)
	h.Modes[0].Finished = true
	assert.Same(t, h.Modes[1], h.FindMode(ModeRequest{Width: 1920, Height: 1080}))
	assert.Same(t, h.Modes[1], h.FindMode(ModeRequest{Width: 1920, Height: 1080, Refresh: 60000}))

	h.Modes[1].Finished = true
	assert.Nil(t, h.FindMode(ModeRequest{Width: 1920, Height: 1080}))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want ModeRequest
	}{
		{"1920x1080", ModeRequest{1920, 1080, 0}},
		{"2560x1440@144", ModeRequest{2560, 1440, 144000}},
		{"2560x1440@143.912", ModeRequest{2560, 1440, 143912}},
		{"2560x1440@143.912Hz", ModeRequest{2560, 1440, 143912}},
		{"1920x1080@59.9996", ModeRequest{1920, 1080, 60000}},
		{"1920x1080@60.", ModeRequest{1920, 1080, 60000}},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{
		"", "1920", "1920x", "x1080", "0x1080", "1920x0", "1920X1080",
		"1920x1080@", "1920x1080@0", "1920x1080@abc", "-1920x1080",
		"1920x1080@60@60", "99999999999x1", "1920x1080@9999999",
	} {
		_, err := ParseMode(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestModeRequestString(t *testing.T) {
	assert.Equal(t, "1920x1080", ModeRequest{Width: 1920, Height: 1080}.String())
	assert.Equal(t, "2560x1440@143.912Hz", ModeRequest{2560, 1440, 143912}.String())
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want Position
	}{
		{"0,0", Position{0, 0}},
		{"1920,0", Position{1920, 0}},
		{"-1280,-200", Position{-1280, -200}},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}

	for _, bad := range []string{"", "0", "0,", ",0", "1 , 2", "1x2", "a,b", "9999999999,0"} {
		_, err := ParsePosition(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestTransform(t *testing.T) {
	for tr := TransformNormal; tr <= TransformFlipped270; tr++ {
		assert.True(t, tr.Valid())
		got, err := ParseTransform(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}
	assert.Equal(t, "flipped-90", TransformFlipped90.String())
	assert.False(t, Transform(8).Valid())
	assert.False(t, Transform(-1).Valid())
	assert.Equal(t, "Transform(8)", Transform(8).String())

	aliases := map[string]Transform{
		"Normal":   TransformNormal,
		" 90 ":     Transform90,
		"left":     Transform90,
		"INVERTED": Transform180,
		"right":    Transform270,
		"flip-180": TransformFlipped180,
	}
	for in, want := range aliases {
		got, err := ParseTransform(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTransform("45")
	assert.Error(t, err)
}
