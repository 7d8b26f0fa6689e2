package wgb

import (
	"errors"
	"time"
)

// ErrRoundtripTimeout is returned by Roundtrip when the compositor did not
// answer the sync request in time.
var ErrRoundtripTimeout = errors.New("wgb: roundtrip timed out")

const callbackEventDone = 0

// Callback is a wl_callback. It is the Wayland counterpart of an XGB cookie:
// the compositor answers requests in order, so once the callback of a sync
// request fires every event caused by earlier requests has been delivered.
type Callback struct {
	c    *Conn
	id   uint32
	done bool
	data uint32
}

// Sync sends wl_display.sync and returns the callback that fires once the
// compositor has processed everything sent before it.
func (c *Conn) Sync() (*Callback, error) {
	cb := &Callback{c: c, id: c.NewId()}
	if err := c.Register(cb); err != nil {
		return nil, err
	}
	if err := c.Send(NewRequest(DisplayId, displaySync).Uint(cb.id)); err != nil {
		return nil, err
	}
	return cb, nil
}

func (cb *Callback) ID() uint32 { return cb.id }

// Done reports whether the callback fired.
func (cb *Callback) Done() bool { return cb.done }

// Data is the callback's payload (the event serial for wl_display.sync).
func (cb *Callback) Data() uint32 { return cb.data }

func (cb *Callback) Dispatch(msg *Message) error {
	if msg.Opcode != callbackEventDone {
		Logger.Printf("unknown wl_callback event %d", msg.Opcode)
		return nil
	}
	cb.data = msg.Uint()
	if err := msg.Err(); err != nil {
		return err
	}
	cb.done = true
	// wl_callback is destroyed by the compositor right after done; the id
	// comes back through delete_id.
	cb.c.Forget(cb.id)
	return nil
}

// Roundtrip blocks until the compositor has processed every request sent so
// far and all resulting events were dispatched.
func (c *Conn) Roundtrip(timeout time.Duration) error {
	cb, err := c.Sync()
	if err != nil {
		return err
	}
	ok, err := c.WaitUntil(cb.Done, timeout, DefaultTick)
	switch {
	case err != nil:
		return err
	case !ok:
		return ErrRoundtripTimeout
	}
	return nil
}
