package outputmgmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ModeRequest asks for a resolution and, optionally, a refresh rate in mHz.
// A zero Refresh means no preference.
type ModeRequest struct {
	Width   int32
	Height  int32
	Refresh int32
}

func (r ModeRequest) String() string {
	s := fmt.Sprintf("%dx%d", r.Width, r.Height)
	if r.Refresh > 0 {
		s += fmt.Sprintf("@%.3fHz", float64(r.Refresh)/1000.0)
	}
	return s
}

// FindMode returns the live mode of 'h' that best satisfies 'req', or nil if
// no live mode has the requested resolution. Callers fall back to a custom
// mode in the nil case.
//
// Without a refresh preference the first preferred mode wins, then the
// highest known refresh rate. With one, an exact match wins, then the
// nearest known refresh rate. Ties go to the mode announced first; when no
// candidate knows its refresh rate the first candidate is returned.
func (h *Head) FindMode(req ModeRequest) *Mode {
	var candidates []*Mode
	for _, mode := range h.LiveModes() {
		if mode.Width == req.Width && mode.Height == req.Height {
			candidates = append(candidates, mode)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	if req.Refresh <= 0 {
		for _, mode := range candidates {
			if mode.Preferred {
				return mode
			}
		}
		var best *Mode
		for _, mode := range candidates {
			if mode.HasRefresh && (best == nil || mode.Refresh > best.Refresh) {
				best = mode
			}
		}
		if best != nil {
			return best
		}
		return candidates[0]
	}

	for _, mode := range candidates {
		if mode.HasRefresh && mode.Refresh == req.Refresh {
			return mode
		}
	}
	var (
		best  *Mode
		delta int64
	)
	for _, mode := range candidates {
		if !mode.HasRefresh {
			continue
		}
		d := int64(mode.Refresh) - int64(req.Refresh)
		if d < 0 {
			d = -d
		}
		if best == nil || d < delta {
			best, delta = mode, d
		}
	}
	if best != nil {
		return best
	}
	return candidates[0]
}

var (
	modeRe     = regexp.MustCompile(`^(\d+)x(\d+)(?:@(\d+(?:\.\d*)?)(?:Hz)?)?$`)
	positionRe = regexp.MustCompile(`^(-?\d+),(-?\d+)$`)
)

// ParseMode parses "WIDTHxHEIGHT" or "WIDTHxHEIGHT@HZ" (an optional "Hz"
// suffix is accepted). The refresh rate is converted to mHz, rounded to the
// nearest integer.
func ParseMode(s string) (ModeRequest, error) {
	m := modeRe.FindStringSubmatch(s)
	if m == nil {
		return ModeRequest{}, fmt.Errorf("invalid mode %q: want WxH or WxH@Hz", s)
	}
	w, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil || w <= 0 {
		return ModeRequest{}, fmt.Errorf("invalid mode %q: bad width", s)
	}
	h, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil || h <= 0 {
		return ModeRequest{}, fmt.Errorf("invalid mode %q: bad height", s)
	}
	req := ModeRequest{Width: int32(w), Height: int32(h)}
	if len(m[3]) > 0 {
		hz, err := strconv.ParseFloat(m[3], 64)
		if err != nil || hz <= 0 || hz*1000 > math.MaxInt32 {
			return ModeRequest{}, fmt.Errorf("invalid mode %q: bad refresh rate", s)
		}
		req.Refresh = int32(math.Round(hz * 1000))
	}
	return req, nil
}

// ParsePosition parses "X,Y".
func ParsePosition(s string) (Position, error) {
	m := positionRe.FindStringSubmatch(s)
	if m == nil {
		return Position{}, fmt.Errorf("invalid position %q: want X,Y", s)
	}
	x, errx := strconv.ParseInt(m[1], 10, 32)
	y, erry := strconv.ParseInt(m[2], 10, 32)
	if errx != nil || erry != nil {
		return Position{}, fmt.Errorf("invalid position %q: out of range", s)
	}
	return Position{X: int32(x), Y: int32(y)}, nil
}
