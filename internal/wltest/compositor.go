// Package wltest provides an in-memory compositor speaking the core Wayland
// objects and wlr-output-management, for tests. A Compositor is a net.Conn:
// hand it to wgb.NewConnNet and script it from the test.
//
// Requests are handled synchronously inside Write, and the answers become
// readable right away. Every request is recorded as a Call.
package wltest

import (
	"math"
)

const (
	displayId    = 1
	serverIdBase = 0xff000000

	managerInterface = "zwlr_output_manager_v1"
)

// Outcome tells the compositor how to answer apply and test requests.
type Outcome int

const (
	Succeed Outcome = iota
	Fail
	Cancel
	// NoReply holds the result back until Resolve is called.
	NoReply
)

// Mode is a scripted mode. A zero Refresh omits the refresh event.
type Mode struct {
	Width, Height int32
	Refresh       int32
	Preferred     bool
}

// Head is a scripted head. Current indexes Modes and is ignored while the
// head is disabled; -1 means no current mode.
type Head struct {
	Name         string
	Description  string
	Make         string
	Model        string
	SerialNumber string

	PhysicalWidth, PhysicalHeight int32

	Enabled   bool
	X, Y      int32
	Scale     float64
	Transform int32
	Modes     []Mode
	Current   int
}

// Call is one recorded request. Head names the head it concerns, if any.
// Args holds the integer arguments: the mode's width, height and refresh
// for set_mode, x and y for set_position, the raw 24.8 value for set_scale.
type Call struct {
	Op   string
	Head string
	Args []int32
}

type headState struct {
	Head
	id       uint32
	modeIds  []uint32
	finished bool
}

type configEntry struct {
	head      *headState
	enabled   bool
	mode      int
	custom    *Mode
	pos       *[2]int32
	transform *int32
	scale     *float64
}

type configState struct {
	id      uint32
	serial  uint32
	entries []*configEntry
	test    bool
}

// Compositor is a scripted compositor implementing net.Conn.
type Compositor struct {
	*conn

	// ManagerVersion is the advertised version of the output manager;
	// zero leaves the global out. Set it before connecting.
	ManagerVersion uint32

	outcome Outcome
	calls   []Call

	registryId   uint32
	managerId    uint32
	boundVersion uint32
	serial       uint32
	nextServerId uint32
	globals      []global

	heads       []*headState
	headsById   map[uint32]*headState
	modesById   map[uint32]*headState
	configs     map[uint32]*configState
	configHeads map[uint32]*configEntry
	held        *configState
}

type global struct {
	name    uint32
	iface   string
	version uint32
}

// New returns a compositor offering the output manager at version 4 with
// the given heads.
func New(heads ...Head) *Compositor {
	c := &Compositor{
		ManagerVersion: 4,
		serial:         1,
		nextServerId:   serverIdBase,
		headsById:      make(map[uint32]*headState),
		modesById:      make(map[uint32]*headState),
		configs:        make(map[uint32]*configState),
		configHeads:    make(map[uint32]*configEntry),
		globals: []global{
			{1, "wl_compositor", 6},
			{2, "wl_shm", 1},
		},
	}
	c.conn = newConn("wltest", c.handle)
	for _, h := range heads {
		c.heads = append(c.heads, &headState{Head: h})
	}
	return c
}

// SetOutcome sets how the following apply and test requests are answered.
func (c *Compositor) SetOutcome(o Outcome) {
	c.mu.Lock()
	c.outcome = o
	c.mu.Unlock()
}

// Calls returns the recorded requests, oldest first.
func (c *Compositor) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Ops returns the names of the recorded requests.
func (c *Compositor) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]string, len(c.calls))
	for i, call := range c.calls {
		ops[i] = call.Op
	}
	return ops
}

// ClearCalls forgets the recorded requests.
func (c *Compositor) ClearCalls() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

// Serial returns the serial of the last done event.
func (c *Compositor) Serial() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serial
}

// Bound reports whether the client bound the output manager.
func (c *Compositor) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.managerId != 0
}

// Head returns the compositor's view of the live head called 'name'.
func (c *Compositor) Head(name string) (Head, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h := c.head(name); h != nil {
		return h.Head, true
	}
	return Head{}, false
}

func (c *Compositor) head(name string) *headState {
	for _, h := range c.heads {
		if !h.finished && h.Name == name {
			return h
		}
	}
	return nil
}

// Push queues raw bytes for the client.
func (c *Compositor) Push(b []byte) {
	c.mu.Lock()
	c.queue(b)
	c.mu.Unlock()
}

// SendError sends a wl_display.error.
func (c *Compositor) SendError(objectId, code uint32, msg string) {
	c.Push(Message(displayId, 0, objectId, code, msg))
}

// AddGlobal announces another global and returns its name.
func (c *Compositor) AddGlobal(iface string, version uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := global{uint32(len(c.globals) + 10), iface, version}
	c.globals = append(c.globals, g)
	if c.registryId != 0 {
		c.queue(Message(c.registryId, 0, g.name, g.iface, g.version))
	}
	return g.name
}

// AddHead plugs in a head. Once the manager is bound the head is announced
// followed by a new done.
func (c *Compositor) AddHead(h Head) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs := &headState{Head: h}
	c.heads = append(c.heads, hs)
	if c.managerId != 0 {
		c.announce(hs)
		c.done()
	}
}

// RemoveHead unplugs the head called 'name': its modes and the head are
// finished, followed by a new done.
func (c *Compositor) RemoveHead(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.head(name)
	if h == nil {
		return false
	}
	h.finished = true
	if c.managerId != 0 {
		for _, id := range h.modeIds {
			c.queue(Message(id, 3))
		}
		c.queue(Message(h.id, 9))
		c.done()
	}
	return true
}

// BumpSerial sends a done with a new serial, as a compositor does after any
// change, and returns it.
func (c *Compositor) BumpSerial() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done()
	return c.serial
}

// FinishManager tears the output manager down.
func (c *Compositor) FinishManager() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.managerId == 0 {
		return
	}
	c.queue(Message(c.managerId, 2))
	c.queue(Message(displayId, 1, c.managerId))
	c.managerId = 0
}

// Resolve answers the configuration held back by NoReply. It returns false
// when nothing is held.
func (c *Compositor) Resolve(o Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.held
	if cfg == nil {
		return false
	}
	c.held = nil
	c.answer(cfg, o)
	return true
}

func (c *Compositor) record(op string, h *headState, args ...int32) {
	call := Call{Op: op, Args: args}
	if h != nil {
		call.Head = h.Name
	}
	c.calls = append(c.calls, call)
}

func (c *Compositor) newServerId() uint32 {
	id := c.nextServerId
	c.nextServerId++
	return id
}

// done bumps the serial and sends it. The caller holds c.mu.
func (c *Compositor) done() {
	c.serial++
	if c.managerId != 0 {
		c.queue(Message(c.managerId, 1, c.serial))
	}
}

// announce sends a head and all of its properties.
func (c *Compositor) announce(h *headState) {
	h.id = c.newServerId()
	c.headsById[h.id] = h
	c.queue(Message(c.managerId, 0, h.id))
	c.queue(Message(h.id, 0, h.Name))
	c.queue(Message(h.id, 1, h.Description))
	c.queue(Message(h.id, 2, h.PhysicalWidth, h.PhysicalHeight))
	h.modeIds = nil
	for i := range h.Modes {
		c.announceMode(h, i)
	}
	c.sendState(h)
	if c.boundVersion >= 2 {
		c.queue(Message(h.id, 10, h.Make))
		c.queue(Message(h.id, 11, h.Model))
		c.queue(Message(h.id, 12, h.SerialNumber))
	}
	if c.boundVersion >= 4 {
		c.queue(Message(h.id, 13, uint32(0)))
	}
}

func (c *Compositor) announceMode(h *headState, i int) {
	mode := h.Modes[i]
	id := c.newServerId()
	h.modeIds = append(h.modeIds, id)
	c.modesById[id] = h
	c.queue(Message(h.id, 3, id))
	c.queue(Message(id, 0, mode.Width, mode.Height))
	if mode.Refresh > 0 {
		c.queue(Message(id, 1, mode.Refresh))
	}
	if mode.Preferred {
		c.queue(Message(id, 2))
	}
}

// sendState sends the properties a configuration can change.
func (c *Compositor) sendState(h *headState) {
	enabled := int32(0)
	if h.Enabled {
		enabled = 1
	}
	c.queue(Message(h.id, 4, enabled))
	if h.Enabled {
		if h.Current >= 0 && h.Current < len(h.modeIds) {
			c.queue(Message(h.id, 5, h.modeIds[h.Current]))
		}
		c.queue(Message(h.id, 6, h.X, h.Y))
		c.queue(Message(h.id, 7, h.Transform))
		c.queue(Message(h.id, 8, h.Scale))
	}
}

// handle processes one client request. It runs with c.mu held.
func (c *Compositor) handle(msg []byte) {
	r := parseRequest(msg)
	switch {
	case r.sender == displayId:
		c.handleDisplay(r)
	case r.sender == c.registryId && c.registryId != 0:
		c.handleRegistry(r)
	case r.sender == c.managerId && c.managerId != 0:
		c.handleManager(r)
	case c.headsById[r.sender] != nil:
		c.record("release_head", c.headsById[r.sender])
		delete(c.headsById, r.sender)
	case c.modesById[r.sender] != nil:
		c.record("release_mode", c.modesById[r.sender])
		delete(c.modesById, r.sender)
	case c.configs[r.sender] != nil:
		c.handleConfig(c.configs[r.sender], r)
	case c.configHeads[r.sender] != nil:
		c.handleConfigHead(c.configHeads[r.sender], r)
	default:
		c.record("unknown", nil, int32(r.sender), int32(r.opcode))
	}
}

func (c *Compositor) handleDisplay(r *request) {
	switch r.opcode {
	case 0: // sync
		id := r.u32()
		c.record("sync", nil)
		c.queue(Message(id, 0, c.serial))
		c.queue(Message(displayId, 1, id))
	case 1: // get_registry
		c.registryId = r.u32()
		c.record("get_registry", nil)
		for _, g := range c.globals {
			c.queue(Message(c.registryId, 0, g.name, g.iface, g.version))
		}
		if c.ManagerVersion > 0 {
			c.queue(Message(c.registryId, 0, uint32(3), managerInterface, c.ManagerVersion))
		}
	}
}

func (c *Compositor) handleRegistry(r *request) {
	if r.opcode != 0 {
		return
	}
	name, iface, version, id := r.u32(), r.str(), r.u32(), r.u32()
	c.record("bind", nil, int32(name), int32(version))
	if iface != managerInterface {
		return
	}
	c.managerId = id
	c.boundVersion = version
	for _, h := range c.heads {
		if !h.finished {
			c.announce(h)
		}
	}
	c.queue(Message(c.managerId, 1, c.serial))
}

func (c *Compositor) handleManager(r *request) {
	switch r.opcode {
	case 0: // create_configuration
		id, serial := r.u32(), r.u32()
		c.record("create_configuration", nil, int32(serial))
		c.configs[id] = &configState{id: id, serial: serial}
	case 1: // stop
		c.record("stop", nil)
		c.queue(Message(c.managerId, 2))
		c.queue(Message(displayId, 1, c.managerId))
		c.managerId = 0
	}
}

func (c *Compositor) handleConfig(cfg *configState, r *request) {
	switch r.opcode {
	case 0: // enable_head
		id, hid := r.u32(), r.u32()
		h := c.headsById[hid]
		c.record("enable_head", h)
		e := &configEntry{head: h, enabled: true, mode: -1}
		cfg.entries = append(cfg.entries, e)
		c.configHeads[id] = e
	case 1: // disable_head
		h := c.headsById[r.u32()]
		c.record("disable_head", h)
		cfg.entries = append(cfg.entries, &configEntry{head: h, mode: -1})
	case 2, 3: // apply, test
		cfg.test = r.opcode == 3
		if cfg.test {
			c.record("test", nil)
		} else {
			c.record("apply", nil)
		}
		if cfg.serial != c.serial {
			c.queue(Message(cfg.id, 2))
			return
		}
		if c.outcome == NoReply {
			c.held = cfg
			return
		}
		c.answer(cfg, c.outcome)
	case 4: // destroy
		c.record("destroy", nil)
		delete(c.configs, cfg.id)
		c.queue(Message(displayId, 1, cfg.id))
	}
}

func (c *Compositor) handleConfigHead(e *configEntry, r *request) {
	h := e.head
	switch r.opcode {
	case 0: // set_mode
		mid := r.u32()
		e.mode = -1
		for i, id := range h.modeIds {
			if id == mid {
				e.mode = i
			}
		}
		var mode Mode
		if e.mode >= 0 {
			mode = h.Modes[e.mode]
		}
		c.record("set_mode", h, mode.Width, mode.Height, mode.Refresh)
	case 1: // set_custom_mode
		mode := Mode{Width: r.i32(), Height: r.i32(), Refresh: r.i32()}
		e.custom = &mode
		c.record("set_custom_mode", h, mode.Width, mode.Height, mode.Refresh)
	case 2: // set_position
		pos := [2]int32{r.i32(), r.i32()}
		e.pos = &pos
		c.record("set_position", h, pos[0], pos[1])
	case 3: // set_transform
		t := r.i32()
		e.transform = &t
		c.record("set_transform", h, t)
	case 4: // set_scale
		raw := r.i32()
		s := float64(raw) / 256
		e.scale = &s
		c.record("set_scale", h, raw)
	}
}

// answer sends the result of 'cfg'. A successful apply updates the heads
// and sends the new state with a new serial.
func (c *Compositor) answer(cfg *configState, o Outcome) {
	switch o {
	case Fail:
		c.queue(Message(cfg.id, 1))
		return
	case Cancel:
		c.queue(Message(cfg.id, 2))
		return
	}
	c.queue(Message(cfg.id, 0))
	if cfg.test || c.managerId == 0 {
		return
	}
	for _, e := range cfg.entries {
		h := e.head
		if h == nil || h.finished {
			continue
		}
		h.Enabled = e.enabled
		if e.mode >= 0 {
			h.Current = e.mode
		}
		if e.custom != nil {
			h.Modes = append(h.Modes, *e.custom)
			c.announceMode(h, len(h.Modes)-1)
			h.Current = len(h.Modes) - 1
		}
		if e.pos != nil {
			h.X, h.Y = e.pos[0], e.pos[1]
		}
		if e.transform != nil {
			h.Transform = *e.transform
		}
		if e.scale != nil {
			h.Scale = math.Round(*e.scale*256) / 256
		}
		c.sendState(h)
	}
	c.done()
}
