package outputmgmt

import (
	"fmt"

	"github.com/BurntSushi/wgb"
)

const (
	headEventName         = 0
	headEventDescription  = 1
	headEventPhysicalSize = 2
	headEventMode         = 3
	headEventEnabled      = 4
	headEventCurrentMode  = 5
	headEventPosition     = 6
	headEventTransform    = 7
	headEventScale        = 8
	headEventFinished     = 9
	headEventMake         = 10
	headEventModel        = 11
	headEventSerialNumber = 12
	headEventAdaptiveSync = 13

	modeEventSize      = 0
	modeEventRefresh   = 1
	modeEventPreferred = 2
	modeEventFinished  = 3

	// release exists on heads and modes since version 3
	releaseRequest = 0
	releaseSince   = 3
)

// Position is a location in the compositor's global coordinate space.
type Position struct {
	X, Y int32
}

func (p Position) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Size is a physical size in millimeters.
type Size struct {
	Width, Height int32
}

// Head is one display sink: a connector or a virtual output.
type Head struct {
	m  *Manager
	id uint32

	Name         string
	Description  string
	Make         string
	Model        string
	SerialNumber string
	PhysicalSize Size
	Enabled      bool
	Position     Position
	Scale        float64
	Transform    Transform
	AdaptiveSync bool

	// Modes lists the modes in announcement order. Finished modes stay in
	// the list, flagged, so that references to them remain valid.
	Modes       []*Mode
	CurrentMode *Mode

	// Finished is set once the compositor retracted the head. A finished
	// head must not be part of new configurations.
	Finished bool
}

func (h *Head) ID() uint32 { return h.id }

// LiveModes returns the modes that are not finished.
func (h *Head) LiveModes() []*Mode {
	var modes []*Mode
	for _, mode := range h.Modes {
		if !mode.Finished {
			modes = append(modes, mode)
		}
	}
	return modes
}

// ModesComplete reports whether every live mode knows its size.
func (h *Head) ModesComplete() bool {
	for _, mode := range h.LiveModes() {
		if !mode.Complete() {
			return false
		}
	}
	return true
}

// Complete reports whether the head has a name and all its live modes are
// complete.
func (h *Head) Complete() bool {
	return len(h.Name) > 0 && h.ModesComplete()
}

func (h *Head) String() string {
	if len(h.Name) == 0 {
		return fmt.Sprintf("<head %d>", h.id)
	}
	return h.Name
}

func (h *Head) Dispatch(msg *wgb.Message) error {
	switch msg.Opcode {
	case headEventName:
		h.Name = msg.Str()
	case headEventDescription:
		h.Description = msg.Str()
	case headEventPhysicalSize:
		h.PhysicalSize = Size{Width: msg.Int(), Height: msg.Int()}
	case headEventMode:
		id := msg.NewId()
		if err := msg.Err(); err != nil {
			return err
		}
		mode := &Mode{head: h, id: id}
		if err := h.m.c.Register(mode); err != nil {
			return err
		}
		h.Modes = append(h.Modes, mode)
	case headEventEnabled:
		h.Enabled = msg.Int() != 0
		if !h.Enabled {
			h.CurrentMode = nil
		}
	case headEventCurrentMode:
		id := msg.Object()
		if err := msg.Err(); err != nil {
			return err
		}
		h.CurrentMode = h.modeById(id)
		if h.CurrentMode == nil {
			wgb.Logger.Printf("head %s: current mode %d is not one of its modes", h, id)
		}
	case headEventPosition:
		h.Position = Position{X: msg.Int(), Y: msg.Int()}
	case headEventTransform:
		h.Transform = Transform(msg.Int())
	case headEventScale:
		h.Scale = msg.Fixed()
	case headEventFinished:
		h.Finished = true
		h.release()
	case headEventMake:
		h.Make = msg.Str()
	case headEventModel:
		h.Model = msg.Str()
	case headEventSerialNumber:
		h.SerialNumber = msg.Str()
	case headEventAdaptiveSync:
		h.AdaptiveSync = msg.Uint() != 0
	default:
		wgb.Logger.Printf("unknown %s event %d", HeadInterface, msg.Opcode)
	}
	return msg.Err()
}

func (h *Head) modeById(id uint32) *Mode {
	for _, mode := range h.Modes {
		if mode.id == id {
			return mode
		}
	}
	return nil
}

func (h *Head) release() {
	if h.m.version >= releaseSince {
		if err := h.m.c.Send(wgb.NewRequest(h.id, releaseRequest)); err != nil {
			wgb.Logger.Printf("release head %s: %s", h, err)
		}
	}
	h.m.c.Forget(h.id)
}

// Mode is one timing a head supports. Refresh is in mHz and only
// meaningful when HasRefresh is set.
type Mode struct {
	head *Head
	id   uint32

	Width      int32
	Height     int32
	Refresh    int32
	HasRefresh bool
	Preferred  bool

	// Finished is set once the compositor retracted the mode. A finished
	// mode is never selected.
	Finished bool
}

func (mode *Mode) ID() uint32 { return mode.id }

// Head returns the head owning the mode.
func (mode *Mode) Head() *Head { return mode.head }

// Complete reports whether the size is known.
func (mode *Mode) Complete() bool {
	return mode.Width > 0 && mode.Height > 0
}

// Hz returns the refresh rate in Hz, or 0 when unknown.
func (mode *Mode) Hz() float64 {
	if !mode.HasRefresh {
		return 0
	}
	return float64(mode.Refresh) / 1000.0
}

func (mode *Mode) String() string {
	if mode == nil {
		return "(none)"
	}
	if !mode.Complete() {
		return "<mode>"
	}
	s := fmt.Sprintf("%dx%d", mode.Width, mode.Height)
	if mode.HasRefresh && mode.Refresh > 0 {
		s += fmt.Sprintf("@%.3fHz", mode.Hz())
	}
	if mode.Preferred {
		s += " (preferred)"
	}
	return s
}

func (mode *Mode) Dispatch(msg *wgb.Message) error {
	switch msg.Opcode {
	case modeEventSize:
		mode.Width, mode.Height = msg.Int(), msg.Int()
	case modeEventRefresh:
		mode.Refresh = msg.Int()
		mode.HasRefresh = true
	case modeEventPreferred:
		mode.Preferred = true
	case modeEventFinished:
		mode.Finished = true
		if mode.head.m.version >= releaseSince {
			if err := mode.head.m.c.Send(wgb.NewRequest(mode.id, releaseRequest)); err != nil {
				wgb.Logger.Printf("release mode %d: %s", mode.id, err)
			}
		}
		mode.head.m.c.Forget(mode.id)
	default:
		wgb.Logger.Printf("unknown %s event %d", ModeInterface, msg.Opcode)
	}
	return msg.Err()
}
