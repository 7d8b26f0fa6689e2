package layout

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/wgb/outputmgmt"
)

var (
	ErrNoHeads            = errors.New("layout: no usable head")
	ErrNoInternal         = errors.New("layout: no internal panel")
	ErrNoExternal         = errors.New("layout: no external display")
	ErrNoMode             = errors.New("layout: head has no usable mode")
	ErrNoCommonResolution = errors.New("layout: no common resolution to mirror")
	ErrUnknownLayout      = errors.New("layout: unknown layout")
)

// Options tune the scale computation and internal panel detection. Zero
// values select the defaults.
type Options struct {
	TargetPPI        float64
	ScaleStep        float64
	InternalPrefixes []string
}

// Kind names an arrangement of an internal panel and one external display.
type Kind string

const (
	InternalOnly Kind = "internal"
	ExternalOnly Kind = "external"
	ExtendRight  Kind = "extend-right"
	ExtendLeft   Kind = "extend-left"
	Mirrored     Kind = "mirror"
)

// Kinds lists every arrangement Arrange knows.
func Kinds() []Kind {
	return []Kind{InternalOnly, ExternalOnly, ExtendRight, ExtendLeft, Mirrored}
}

func at(x, y int32) *outputmgmt.Position {
	return &outputmgmt.Position{X: x, Y: y}
}

// only enables the heads in 'on' and disables every other head.
func only(heads []*outputmgmt.Head, on ...outputmgmt.HeadConfig) []outputmgmt.HeadConfig {
	plan := make([]outputmgmt.HeadConfig, 0, len(heads))
	for _, h := range heads {
		if h.Finished {
			continue
		}
		hc := outputmgmt.HeadConfig{Head: h}
		for _, c := range on {
			if c.Head == h {
				hc = c
			}
		}
		plan = append(plan, hc)
	}
	return plan
}

// Only enables 'target' alone, in its best mode at the origin. A nil scale
// leaves the head's scale alone.
func Only(heads []*outputmgmt.Head, target *outputmgmt.Head, scale *float64) ([]outputmgmt.HeadConfig, error) {
	mode := BestMode(target)
	if mode == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMode, target)
	}
	return only(heads, outputmgmt.HeadConfig{
		Head:     target,
		Enabled:  true,
		Mode:     mode,
		Position: at(0, 0),
		Scale:    scale,
	}), nil
}

// Best picks the best head with PickBest, scales it to the target density
// and disables every other head.
func Best(heads []*outputmgmt.Head, opts Options) (Choice, float64, []outputmgmt.HeadConfig, error) {
	choice, ok := PickBest(heads)
	if !ok {
		return Choice{}, 0, nil, ErrNoHeads
	}
	scale := HeadScale(choice.Head, choice.Mode, opts.TargetPPI, opts.ScaleStep)
	plan := only(heads, outputmgmt.HeadConfig{
		Head:     choice.Head,
		Enabled:  true,
		Mode:     choice.Mode,
		Position: at(0, 0),
		Scale:    &scale,
	})
	return choice, scale, plan, nil
}

// Extend places 'left' at the origin and 'right' next to it, both in their
// best modes. Other heads are disabled.
func Extend(heads []*outputmgmt.Head, left, right *outputmgmt.Head) ([]outputmgmt.HeadConfig, error) {
	lm, rm := BestMode(left), BestMode(right)
	if lm == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMode, left)
	}
	if rm == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMode, right)
	}
	return only(heads,
		outputmgmt.HeadConfig{Head: left, Enabled: true, Mode: lm, Position: at(0, 0)},
		outputmgmt.HeadConfig{Head: right, Enabled: true, Mode: rm, Position: at(lm.Width, 0)},
	), nil
}

// Mirror shows the same area on 'a' and 'b': both at the origin, in the
// largest resolution they share, each at its fastest refresh rate for it.
func Mirror(heads []*outputmgmt.Head, a, b *outputmgmt.Head) ([]outputmgmt.HeadConfig, error) {
	common := CommonResolutions(a, b)
	if len(common) == 0 {
		return nil, fmt.Errorf("%w: %s and %s", ErrNoCommonResolution, a, b)
	}
	res := common[0]
	am, bm := fastest(a, res), fastest(b, res)
	return only(heads,
		outputmgmt.HeadConfig{Head: a, Enabled: true, Mode: am, Position: at(0, 0)},
		outputmgmt.HeadConfig{Head: b, Enabled: true, Mode: bm, Position: at(0, 0)},
	), nil
}

// fastest returns the live mode of 'h' with the given size and the highest
// refresh rate.
func fastest(h *outputmgmt.Head, res outputmgmt.ModeRequest) *outputmgmt.Mode {
	var best *outputmgmt.Mode
	for _, mode := range h.LiveModes() {
		if mode.Width != res.Width || mode.Height != res.Height {
			continue
		}
		if best == nil || mode.Hz() > best.Hz() {
			best = mode
		}
	}
	return best
}

// Arrange builds the plan for 'kind' from the internal panel and the first
// external display among 'heads'.
func Arrange(kind Kind, heads []*outputmgmt.Head, opts Options) ([]outputmgmt.HeadConfig, error) {
	internal := Internal(heads, opts.InternalPrefixes)
	external := External(heads, internal)

	need := func(wantInternal, wantExternal bool) error {
		if wantInternal && internal == nil {
			return ErrNoInternal
		}
		if wantExternal && external == nil {
			return ErrNoExternal
		}
		return nil
	}

	switch kind {
	case InternalOnly:
		if err := need(true, false); err != nil {
			return nil, err
		}
		return Only(heads, internal, nil)
	case ExternalOnly:
		if err := need(false, true); err != nil {
			return nil, err
		}
		mode := BestMode(external)
		scale := HeadScale(external, mode, opts.TargetPPI, opts.ScaleStep)
		return Only(heads, external, &scale)
	case ExtendRight:
		if err := need(true, true); err != nil {
			return nil, err
		}
		return Extend(heads, internal, external)
	case ExtendLeft:
		if err := need(true, true); err != nil {
			return nil, err
		}
		return Extend(heads, external, internal)
	case Mirrored:
		if err := need(true, true); err != nil {
			return nil, err
		}
		return Mirror(heads, internal, external)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownLayout, kind)
}
