package outputmgmt

import (
	"time"

	"github.com/BurntSushi/wgb"
)

const (
	managerCreateConfiguration = 0
	managerStop                = 1

	managerEventHead     = 0
	managerEventDone     = 1
	managerEventFinished = 2
)

// Manager is the bound zwlr_output_manager_v1. It owns every Head the
// compositor announced, in announcement order, including finished ones.
type Manager struct {
	c       *wgb.Conn
	id      uint32
	version uint32

	heads     []*Head
	serial    uint32
	hasSerial bool
	dones     uint64
	finished  bool

	inflight *Configuration

	// Tick is the dispatch slice used by the Wait* methods.
	Tick time.Duration
}

func newManager(c *wgb.Conn, id, version uint32) *Manager {
	return &Manager{c: c, id: id, version: version, Tick: wgb.DefaultTick}
}

func (m *Manager) ID() uint32 { return m.id }

// Version is the negotiated protocol version.
func (m *Manager) Version() uint32 { return m.version }

// Conn returns the connection the manager is bound on.
func (m *Manager) Conn() *wgb.Conn { return m.c }

// Serial returns the serial of the last completed snapshot. The second
// value is false until the first done event.
func (m *Manager) Serial() (uint32, bool) { return m.serial, m.hasSerial }

// Finished reports whether the compositor tore the manager down.
func (m *Manager) Finished() bool { return m.finished }

// Ready reports whether a snapshot is available: a serial was received and
// at least one head is known. This is the earliest point at which head
// state may be read.
func (m *Manager) Ready() bool {
	return m.hasSerial && len(m.heads) > 0
}

// Heads returns the live heads in announcement order.
func (m *Manager) Heads() []*Head {
	heads := make([]*Head, 0, len(m.heads))
	for _, h := range m.heads {
		if !h.Finished {
			heads = append(heads, h)
		}
	}
	return heads
}

// AllHeads returns every head ever announced, finished ones included.
func (m *Manager) AllHeads() []*Head {
	return append([]*Head(nil), m.heads...)
}

// Head returns the live head called 'name', or nil.
func (m *Manager) Head(name string) *Head {
	for _, h := range m.heads {
		if !h.Finished && h.Name == name {
			return h
		}
	}
	return nil
}

// HeadNames lists the names of the live heads.
func (m *Manager) HeadNames() []string {
	var names []string
	for _, h := range m.Heads() {
		name := h.Name
		if len(name) == 0 {
			name = "<unnamed>"
		}
		names = append(names, name)
	}
	return names
}

// WaitReady dispatches until Ready holds or 'timeout' elapses.
func (m *Manager) WaitReady(timeout time.Duration) (bool, error) {
	return m.c.WaitUntil(m.Ready, timeout, m.Tick)
}

// WaitModes dispatches until every live mode of 'h' knows its size.
func (m *Manager) WaitModes(h *Head, timeout time.Duration) (bool, error) {
	return m.c.WaitUntil(h.ModesComplete, timeout, m.Tick)
}

// WaitNextSerial dispatches until a done event newer than the call arrives.
// Use it to pick up the snapshot the compositor sends after a change.
func (m *Manager) WaitNextSerial(timeout time.Duration) (bool, error) {
	seen := m.dones
	return m.c.WaitUntil(func() bool { return m.dones > seen }, timeout, m.Tick)
}

// Stop tells the compositor that the client no longer wants head updates.
// The compositor answers with a finished event.
func (m *Manager) Stop() error {
	if m.finished {
		return nil
	}
	return m.c.Send(wgb.NewRequest(m.id, managerStop))
}

func (m *Manager) Dispatch(msg *wgb.Message) error {
	switch msg.Opcode {
	case managerEventHead:
		id := msg.NewId()
		if err := msg.Err(); err != nil {
			return err
		}
		h := &Head{m: m, id: id}
		if err := m.c.Register(h); err != nil {
			return err
		}
		m.heads = append(m.heads, h)
	case managerEventDone:
		serial := msg.Uint()
		if err := msg.Err(); err != nil {
			return err
		}
		m.serial = serial
		m.hasSerial = true
		m.dones++
	case managerEventFinished:
		m.finished = true
		m.c.Forget(m.id)
	default:
		wgb.Logger.Printf("unknown %s event %d", ManagerInterface, msg.Opcode)
	}
	return nil
}
