// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The WGB package implements the client side of the Wayland wire protocol.
// It is modeled on XGB: a single Conn owns the socket, objects are plain
// values registered by id, and protocol extensions live in their own
// packages.
package wgb

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"time"
)

const (
	// DisplayId is the id of the wl_display singleton.
	DisplayId = 1

	// serverIdBase is the first id the compositor allocates on its own.
	serverIdBase = 0xff000000

	readBuffer = 4096
)

// DefaultTick is the dispatch slice used by WaitUntil callers that do not
// care about the granularity.
const DefaultTick = 50 * time.Millisecond

var (
	// ErrClosed is returned by every operation on a closed Conn.
	ErrClosed = errors.New("wgb: connection closed")

	// ErrIdInUse is returned when registering an id that is still in
	// use.
	ErrIdInUse = errors.New("wgb: object id already in use")
)

// Object is implemented by every client side protocol object. Dispatch is
// called synchronously from Conn.Dispatch for each event the object
// receives.
type Object interface {
	ID() uint32
	Dispatch(msg *Message) error
}

// ProtocolError is a fatal wl_display.error sent by the compositor. The
// connection is unusable after one arrives.
type ProtocolError struct {
	ObjectId uint32
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wgb: protocol error on object %d (code %d): %s",
		e.ObjectId, e.Code, e.Message)
}

// Global is one interface announced by the registry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// A Conn represents a connection to a Wayland compositor.
//
// A Conn is not safe for concurrent use. All events are delivered from
// Dispatch on the calling goroutine; there is no reader goroutine.
type Conn struct {
	conn    net.Conn
	in      []byte
	scratch [readBuffer]byte
	err     error

	objects map[uint32]Object
	nextId  uint32
	freeIds []uint32

	registryId     uint32
	globals        map[uint32]Global
	globalHandlers map[string][]func(Global)
}

// NewConn connects to the compositor named by the environment. See
// SocketPath for the lookup rules.
func NewConn() (*Conn, error) {
	return NewConnDisplay("")
}

// NewConnDisplay is just like NewConn, but allows a specific display name
// to be used. If 'display' is empty it is taken from WAYLAND_DISPLAY (or
// WAYLAND_SOCKET, when set).
//
// Examples:
//	NewConnDisplay("wayland-1") -> $XDG_RUNTIME_DIR/wayland-1
//	NewConnDisplay("/tmp/sock") -> /tmp/sock
func NewConnDisplay(display string) (*Conn, error) {
	conn, err := dial(display)
	if err != nil {
		return nil, err
	}
	c, err := NewConnNet(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewConnNet wraps an already established connection.
func NewConnNet(conn net.Conn) (*Conn, error) {
	return postNewConn(&Conn{conn: conn})
}

// postNewConn initializes the object table and requests the registry.
func postNewConn(c *Conn) (*Conn, error) {
	c.objects = make(map[uint32]Object)
	c.nextId = DisplayId + 1
	c.globals = make(map[uint32]Global)
	c.globalHandlers = make(map[string][]func(Global))

	c.objects[DisplayId] = displayObject{c}

	reg := &registry{c: c, id: c.NewId()}
	if err := c.Register(reg); err != nil {
		return nil, err
	}
	c.registryId = reg.id
	err := c.Send(NewRequest(DisplayId, displayGetRegistry).Uint(reg.id))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close closes the connection to the compositor.
func (c *Conn) Close() error {
	if c.err == nil {
		c.err = ErrClosed
	}
	return c.conn.Close()
}

// Err returns the error that made the connection unusable, if any.
func (c *Conn) Err() error {
	return c.err
}

// NewId reserves an id for an object the client is about to create.
// Ids released by the compositor (wl_display.delete_id) are reused first.
func (c *Conn) NewId() uint32 {
	if n := len(c.freeIds); n > 0 {
		id := c.freeIds[n-1]
		c.freeIds = c.freeIds[:n-1]
		return id
	}
	id := c.nextId
	c.nextId++
	return id
}

// Register makes 'o' the receiver of events addressed to o.ID(). This is
// used both for ids from NewId and for ids the compositor hands out in
// new_id event arguments.
func (c *Conn) Register(o Object) error {
	id := o.ID()
	if cur, ok := c.objects[id]; ok {
		if _, dead := cur.(zombie); !dead {
			return fmt.Errorf("%w: %d", ErrIdInUse, id)
		}
	}
	c.objects[id] = o
	return nil
}

// Lookup returns the live object registered under 'id'.
func (c *Conn) Lookup(id uint32) (Object, bool) {
	o, ok := c.objects[id]
	if !ok {
		return nil, false
	}
	if _, dead := o.(zombie); dead {
		return nil, false
	}
	return o, true
}

// Forget drops the handler for 'id' after its destructor request was sent.
// Events still in flight for it are discarded. Client allocated ids become
// reusable once the compositor confirms with delete_id; server allocated
// ids are released right away.
func (c *Conn) Forget(id uint32) {
	if id >= serverIdBase {
		delete(c.objects, id)
		return
	}
	c.objects[id] = zombie(id)
}

// Send writes one request.
func (c *Conn) Send(r *Request) error {
	if c.err != nil {
		return c.err
	}
	buf, err := r.bytes()
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(buf); err != nil {
		c.err = fmt.Errorf("wgb: write: %w", err)
		return c.err
	}
	return nil
}

// Dispatch delivers pending events, invoking the registered objects'
// handlers synchronously. It waits at most 'timeout' for bytes to arrive and
// returns nil if none did. Incomplete messages are kept for the next call,
// so a timeout never loses data.
//
// A non-nil error is fatal: a read failure, a wl_display.error (as a
// *ProtocolError), or an error returned by an object's handler.
func (c *Conn) Dispatch(timeout time.Duration) error {
	if c.err != nil {
		return c.err
	}
	deadline := time.Now().Add(timeout)
	delivered := 0
	for {
		n, err := c.deliver()
		delivered += n
		if err != nil {
			c.err = err
			return err
		}
		if delivered > 0 && len(c.in) == 0 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return nil
		}

		if err := c.conn.SetReadDeadline(deadline); err != nil {
			c.err = fmt.Errorf("wgb: set read deadline: %w", err)
			return c.err
		}
		nr, err := c.conn.Read(c.scratch[:])
		c.in = append(c.in, c.scratch[:nr]...)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			c.err = fmt.Errorf("wgb: read: %w", err)
			return c.err
		}
	}
}

// deliver dispatches every complete message in the input buffer.
func (c *Conn) deliver() (int, error) {
	n := 0
	for len(c.in) >= headerSize {
		size := int(get32(c.in[4:]) >> 16)
		if size < headerSize {
			return n, fmt.Errorf("wgb: invalid message size %d", size)
		}
		if len(c.in) < size {
			break
		}
		msg := &Message{
			Sender: get32(c.in[0:]),
			Opcode: uint16(get32(c.in[4:]) & 0xffff),
			body:   c.in[headerSize:size],
		}
		c.in = c.in[size:]
		n++

		o, ok := c.objects[msg.Sender]
		if !ok {
			Logger.Printf("event %d for unknown object %d dropped",
				msg.Opcode, msg.Sender)
			continue
		}
		if err := o.Dispatch(msg); err != nil {
			return n, err
		}
	}
	if len(c.in) == 0 {
		// let the backing array go once it has been drained
		c.in = nil
	}
	return n, nil
}

// WaitUntil dispatches in slices of 'tick' until pred() is true or
// 'timeout' elapses, and returns the final value of pred(). A false result
// with a nil error means the wait timed out.
func (c *Conn) WaitUntil(pred func() bool, timeout, tick time.Duration) (bool, error) {
	if tick <= 0 {
		tick = DefaultTick
	}
	deadline := time.Now().Add(timeout)
	for {
		if pred() {
			return true, nil
		}
		rem := time.Until(deadline)
		if rem <= 0 {
			return pred(), nil
		}
		if rem > tick {
			rem = tick
		}
		if err := c.Dispatch(rem); err != nil {
			return pred(), err
		}
	}
}

// Globals returns the interfaces currently announced by the compositor,
// ordered by global name.
func (c *Conn) Globals() []Global {
	gs := make([]Global, 0, len(c.globals))
	for _, g := range c.globals {
		gs = append(gs, g)
	}
	sort.Slice(gs, func(i, j int) bool { return gs[i].Name < gs[j].Name })
	return gs
}

// HandleGlobal calls 'fn' for every global implementing 'iface': once for
// each already announced, and again for any announced later.
func (c *Conn) HandleGlobal(iface string, fn func(Global)) {
	c.globalHandlers[iface] = append(c.globalHandlers[iface], fn)
	for _, g := range c.Globals() {
		if g.Interface == iface {
			fn(g)
		}
	}
}

// Bind creates 'o' as an instance of global 'g'. 'o' must carry an id
// obtained from NewId.
func (c *Conn) Bind(g Global, version uint32, o Object) error {
	if version > g.Version {
		version = g.Version
	}
	if err := c.Register(o); err != nil {
		return err
	}
	return c.Send(NewRequest(c.registryId, registryBind).
		Uint(g.Name).String(g.Interface).Uint(version).Uint(o.ID()))
}

const (
	displaySync        = 0
	displayGetRegistry = 1

	displayEventError    = 0
	displayEventDeleteId = 1

	registryBind = 0

	registryEventGlobal       = 0
	registryEventGlobalRemove = 1
)

// displayObject handles the wl_display events.
type displayObject struct {
	c *Conn
}

func (d displayObject) ID() uint32 { return DisplayId }

func (d displayObject) Dispatch(msg *Message) error {
	switch msg.Opcode {
	case displayEventError:
		e := &ProtocolError{
			ObjectId: msg.Object(),
			Code:     msg.Uint(),
			Message:  msg.Str(),
		}
		if err := msg.Err(); err != nil {
			return err
		}
		return e
	case displayEventDeleteId:
		id := msg.Uint()
		if err := msg.Err(); err != nil {
			return err
		}
		if id >= serverIdBase {
			return nil
		}
		delete(d.c.objects, id)
		d.c.freeIds = append(d.c.freeIds, id)
	default:
		Logger.Printf("unknown wl_display event %d", msg.Opcode)
	}
	return nil
}

// registry tracks wl_registry announcements.
type registry struct {
	c  *Conn
	id uint32
}

func (r *registry) ID() uint32 { return r.id }

func (r *registry) Dispatch(msg *Message) error {
	switch msg.Opcode {
	case registryEventGlobal:
		g := Global{Name: msg.Uint(), Interface: msg.Str(), Version: msg.Uint()}
		if err := msg.Err(); err != nil {
			return err
		}
		r.c.globals[g.Name] = g
		for _, fn := range r.c.globalHandlers[g.Interface] {
			fn(g)
		}
	case registryEventGlobalRemove:
		name := msg.Uint()
		if err := msg.Err(); err != nil {
			return err
		}
		delete(r.c.globals, name)
	default:
		Logger.Printf("unknown wl_registry event %d", msg.Opcode)
	}
	return nil
}

// zombie stands in for an object whose destructor was sent but whose id
// the compositor has not released yet.
type zombie uint32

func (z zombie) ID() uint32 { return uint32(z) }

func (z zombie) Dispatch(msg *Message) error { return nil }
