// Package layout picks modes, scales and arrangements for the heads of an
// output manager snapshot, and turns them into complete configuration plans.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/wgb/outputmgmt"
)

const (
	// DefaultTargetPPI is the effective density Scale aims for.
	DefaultTargetPPI = 109.0

	// DefaultScaleStep is the granularity of computed scales.
	DefaultScaleStep = 0.125

	mmPerInch = 25.4
)

// DefaultInternalPrefixes name built-in panels.
var DefaultInternalPrefixes = []string{"eDP", "LVDS"}

// BestMode returns the live mode with the largest pixel area, preferring
// the preferred mode and then the highest refresh rate among equals. It
// returns nil for a head without usable modes.
func BestMode(h *outputmgmt.Head) *outputmgmt.Mode {
	var best *outputmgmt.Mode
	for _, mode := range h.LiveModes() {
		if !mode.Complete() {
			continue
		}
		if best == nil || betterMode(mode, best) {
			best = mode
		}
	}
	return best
}

// betterMode reports whether a ranks strictly above b.
func betterMode(a, b *outputmgmt.Mode) bool {
	if aa, ba := area(a), area(b); aa != ba {
		return aa > ba
	}
	if a.Preferred != b.Preferred {
		return a.Preferred
	}
	return a.Hz() > b.Hz()
}

func area(mode *outputmgmt.Mode) int64 {
	return int64(mode.Width) * int64(mode.Height)
}

// Choice is a head together with the mode chosen for it.
type Choice struct {
	Head *outputmgmt.Head
	Mode *outputmgmt.Mode
}

// PickBest ranks heads by their best mode: enabled heads first, then pixel
// area, preferred, refresh rate. Heads without modes are skipped. The
// second result is false when no head qualifies.
func PickBest(heads []*outputmgmt.Head) (Choice, bool) {
	var (
		best  Choice
		found bool
	)
	for _, h := range heads {
		if h.Finished {
			continue
		}
		mode := BestMode(h)
		if mode == nil {
			continue
		}
		c := Choice{Head: h, Mode: mode}
		if !found || betterChoice(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

func betterChoice(a, b Choice) bool {
	if a.Head.Enabled != b.Head.Enabled {
		return a.Head.Enabled
	}
	return betterMode(a.Mode, b.Mode)
}

// PPI is the pixel density of 'mode' on a panel of 'physical' millimeters.
// The second result is false when the physical size is unknown.
func PPI(mode *outputmgmt.Mode, physical outputmgmt.Size) (float64, bool) {
	if mode == nil || physical.Width <= 0 || physical.Height <= 0 {
		return 0, false
	}
	diagPx := math.Hypot(float64(mode.Width), float64(mode.Height))
	diagIn := math.Hypot(float64(physical.Width), float64(physical.Height)) / mmPerInch
	if diagIn <= 0 {
		return 0, false
	}
	return diagPx / diagIn, true
}

// Scale maps a density to an output scale: ppi/target rounded to the
// nearest 'step', never below 1.
func Scale(ppi, target, step float64) float64 {
	if target <= 0 {
		target = DefaultTargetPPI
	}
	if step <= 0 {
		step = DefaultScaleStep
	}
	s := math.Round(ppi/target/step) * step
	return math.Max(1, s)
}

// HeadScale is Scale for the given head and mode; 1 when the physical size
// is unknown.
func HeadScale(h *outputmgmt.Head, mode *outputmgmt.Mode, target, step float64) float64 {
	ppi, ok := PPI(mode, h.PhysicalSize)
	if !ok {
		return 1
	}
	return Scale(ppi, target, step)
}

// IsInternal reports whether 'name' starts with one of 'prefixes', case
// insensitively. Nil prefixes mean DefaultInternalPrefixes.
func IsInternal(name string, prefixes []string) bool {
	if prefixes == nil {
		prefixes = DefaultInternalPrefixes
	}
	lname := strings.ToLower(name)
	for _, p := range prefixes {
		if len(p) > 0 && strings.HasPrefix(lname, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Internal returns the first live internal head, or nil.
func Internal(heads []*outputmgmt.Head, prefixes []string) *outputmgmt.Head {
	for _, h := range heads {
		if !h.Finished && IsInternal(h.Name, prefixes) {
			return h
		}
	}
	return nil
}

// External returns the first live head other than 'internal', or nil.
func External(heads []*outputmgmt.Head, internal *outputmgmt.Head) *outputmgmt.Head {
	for _, h := range heads {
		if !h.Finished && h != internal {
			return h
		}
	}
	return nil
}

// CommonResolutions lists the resolutions both heads support, largest area
// first. Each resolution appears once.
func CommonResolutions(a, b *outputmgmt.Head) []outputmgmt.ModeRequest {
	type res struct{ w, h int32 }
	inB := make(map[res]bool)
	for _, mode := range b.LiveModes() {
		inB[res{mode.Width, mode.Height}] = true
	}

	seen := make(map[res]bool)
	var common []outputmgmt.ModeRequest
	for _, mode := range a.LiveModes() {
		r := res{mode.Width, mode.Height}
		if !inB[r] || seen[r] || !mode.Complete() {
			continue
		}
		seen[r] = true
		common = append(common, outputmgmt.ModeRequest{Width: r.w, Height: r.h})
	}
	sort.SliceStable(common, func(i, j int) bool {
		return resArea(common[i]) > resArea(common[j])
	})
	return common
}

func resArea(r outputmgmt.ModeRequest) int64 {
	return int64(r.Width) * int64(r.Height)
}
