package wltest

// Desk returns a laptop panel with two external monitors:
// DP-1 (disabled, 1440p up to 143.912Hz), eDP-1 (enabled, scale 1) and
// HDMI-A-1 (enabled, right of eDP-1).
func Desk() []Head {
	return []Head{
		{
			Name:           "DP-1",
			Description:    "Dell Inc. DELL S2721DGF (DP-1)",
			Make:           "Dell Inc.",
			Model:          "DELL S2721DGF",
			SerialNumber:   "8C1QK83",
			PhysicalWidth:  597,
			PhysicalHeight: 336,
			Scale:          1,
			Current:        -1,
			Modes: []Mode{
				{Width: 2560, Height: 1440, Refresh: 59951, Preferred: true},
				{Width: 2560, Height: 1440, Refresh: 143912},
				{Width: 2560, Height: 1440, Refresh: 120000},
				{Width: 1920, Height: 1080, Refresh: 60000},
			},
		},
		{
			Name:           "eDP-1",
			Description:    "BOE 0x0BCA (eDP-1)",
			Make:           "BOE",
			Model:          "0x0BCA",
			PhysicalWidth:  344,
			PhysicalHeight: 194,
			Enabled:        true,
			Scale:          1,
			Modes: []Mode{
				{Width: 1920, Height: 1080, Refresh: 60008, Preferred: true},
				{Width: 1920, Height: 1080, Refresh: 48000},
			},
		},
		{
			Name:           "HDMI-A-1",
			Description:    "Samsung Electric Company S24F350 (HDMI-A-1)",
			Make:           "Samsung Electric Company",
			Model:          "S24F350",
			SerialNumber:   "H4ZN300131",
			PhysicalWidth:  527,
			PhysicalHeight: 296,
			Enabled:        true,
			X:              1920,
			Scale:          1,
			Modes: []Mode{
				{Width: 1920, Height: 1080, Refresh: 60000, Preferred: true},
				{Width: 1280, Height: 720, Refresh: 60000},
			},
		},
	}
}
