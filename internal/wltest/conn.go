package wltest

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

type addr struct {
	s string
}

func (addr) Network() string  { return "wltest" }
func (a addr) String() string { return a.s }

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("wltest: compositor closed")

	// ErrWrite is returned by Write while writes are set to fail.
	ErrWrite = errors.New("wltest: write failed")
)

// conn is the net.Conn half of the fake. Client writes are handed to
// 'handle' synchronously; whatever it queues with queue() becomes readable.
// Reads honour the read deadline and fail with os.ErrDeadlineExceeded,
// like a real socket.
type conn struct {
	name string

	mu         sync.Mutex
	in         []byte
	out        []byte
	closed     bool
	failWrites bool
	deadline   time.Time
	wake       chan struct{}

	onRequest func(msg []byte)
}

func newConn(name string, handle func([]byte)) *conn {
	return &conn{name: name, wake: make(chan struct{}, 1), onRequest: handle}
}

func (c *conn) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// queue appends bytes for the client. The caller holds c.mu.
func (c *conn) queue(b []byte) {
	c.out = append(c.out, b...)
	c.notify()
}

// Write feeds client requests to the handler, one complete message at a
// time. Partial messages are kept until the rest arrives.
func (c *conn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	if c.failWrites {
		return 0, ErrWrite
	}
	c.in = append(c.in, b...)
	for len(c.in) >= 8 {
		size := int(le.Uint32(c.in[4:]) >> 16)
		if size < 8 || len(c.in) < size {
			break
		}
		msg := append([]byte(nil), c.in[:size]...)
		c.in = c.in[size:]
		c.onRequest(msg)
	}
	return len(b), nil
}

// Read blocks until events are queued, the deadline passes or the
// connection is closed.
func (c *conn) Read(b []byte) (int, error) {
	for {
		c.mu.Lock()
		if len(c.out) > 0 {
			n := copy(b, c.out)
			c.out = c.out[n:]
			c.mu.Unlock()
			return n, nil
		}
		if c.closed {
			c.mu.Unlock()
			return 0, io.EOF
		}
		deadline := c.deadline
		c.mu.Unlock()

		var timer *time.Timer
		var expired <-chan time.Time
		if !deadline.IsZero() {
			d := time.Until(deadline)
			if d <= 0 {
				return 0, os.ErrDeadlineExceeded
			}
			timer = time.NewTimer(d)
			expired = timer.C
		}
		select {
		case <-c.wake:
		case <-expired:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Close closes the connection. Blocked and future reads return io.EOF.
func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.notify()
	return nil
}

func (c *conn) LocalAddr() net.Addr  { return addr{c.name} }
func (c *conn) RemoteAddr() net.Addr { return addr{c.name} }

func (c *conn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

func (c *conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *conn) SetWriteDeadline(t time.Time) error { return nil }

// FailWrites makes every following Write fail with ErrWrite, or succeed
// again when 'fail' is false.
func (c *conn) FailWrites(fail bool) {
	c.mu.Lock()
	c.failWrites = fail
	c.mu.Unlock()
}
