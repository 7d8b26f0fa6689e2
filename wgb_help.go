package wgb

import (
	"errors"
	"fmt"
	"math"
)

// headerSize is the size of every message header: the sender's object id
// followed by the message size (upper 16 bits) and opcode (lower 16 bits).
const headerSize = 8

// maxMessageSize is the largest message representable in the header.
const maxMessageSize = 1<<16 - 1

// ErrShortMessage is reported when an event carries fewer bytes than its
// signature requires.
var ErrShortMessage = errors.New("wgb: message shorter than its arguments")

// Pad a length to align on 4 bytes.
func pad(n int) int { return (n + 3) & ^3 }

func put32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func get32(buf []byte) uint32 {
	v := uint32(buf[0])
	v |= uint32(buf[1]) << 8
	v |= uint32(buf[2]) << 16
	v |= uint32(buf[3]) << 24
	return v
}

// FixedToFloat converts a 24.8 signed fixed-point wire value.
func FixedToFloat(f int32) float64 {
	return float64(f) / 256.0
}

// FloatToFixed converts to the 24.8 signed fixed-point wire format,
// rounding to the nearest representable value.
func FloatToFixed(v float64) int32 {
	return int32(math.Round(v * 256.0))
}

// Request is an outgoing message under construction. Arguments must be
// appended in the order of the request's signature.
type Request struct {
	buf []byte
}

// NewRequest starts a request sent by object 'sender'.
func NewRequest(sender uint32, opcode uint16) *Request {
	r := &Request{buf: make([]byte, headerSize, 32)}
	put32(r.buf[0:], sender)
	put32(r.buf[4:], uint32(opcode))
	return r
}

// Uint appends a 32-bit unsigned argument. Object ids and new ids are also
// sent this way.
func (r *Request) Uint(v uint32) *Request {
	var b [4]byte
	put32(b[:], v)
	r.buf = append(r.buf, b[:]...)
	return r
}

// Int appends a 32-bit signed argument.
func (r *Request) Int(v int32) *Request {
	return r.Uint(uint32(v))
}

// Fixed appends a 24.8 fixed-point argument.
func (r *Request) Fixed(v float64) *Request {
	return r.Int(FloatToFixed(v))
}

// String appends a NUL terminated, padded string argument.
func (r *Request) String(s string) *Request {
	n := len(s) + 1
	r.Uint(uint32(n))
	r.buf = append(r.buf, s...)
	r.buf = append(r.buf, make([]byte, pad(n)-len(s))...)
	return r
}

// Object appends a reference to an existing object; nil sends the null
// object.
func (r *Request) Object(o Object) *Request {
	if o == nil {
		return r.Uint(0)
	}
	return r.Uint(o.ID())
}

// bytes finalizes the header and returns the wire representation.
func (r *Request) bytes() ([]byte, error) {
	if len(r.buf) > maxMessageSize {
		return nil, fmt.Errorf("wgb: request of %d bytes is too large", len(r.buf))
	}
	opcode := get32(r.buf[4:]) & 0xffff
	put32(r.buf[4:], uint32(len(r.buf))<<16|opcode)
	return r.buf, nil
}

// Message is an incoming event. Arguments are consumed in signature order;
// the first decoding failure sticks and is reported by Err.
type Message struct {
	Sender uint32
	Opcode uint16

	body []byte
	off  int
	err  error
}

func (m *Message) take(n int) []byte {
	if m.err != nil {
		return nil
	}
	if m.off+n > len(m.body) {
		m.err = fmt.Errorf("%w: object %d opcode %d", ErrShortMessage,
			m.Sender, m.Opcode)
		return nil
	}
	b := m.body[m.off : m.off+n]
	m.off += n
	return b
}

// Uint reads a 32-bit unsigned argument.
func (m *Message) Uint() uint32 {
	b := m.take(4)
	if b == nil {
		return 0
	}
	return get32(b)
}

// Int reads a 32-bit signed argument.
func (m *Message) Int() int32 {
	return int32(m.Uint())
}

// Fixed reads a 24.8 fixed-point argument.
func (m *Message) Fixed() float64 {
	return FixedToFloat(m.Int())
}

// Object reads an object id (0 is the null object).
func (m *Message) Object() uint32 {
	return m.Uint()
}

// NewId reads the id of an object the compositor just created.
func (m *Message) NewId() uint32 {
	return m.Uint()
}

// Str reads a string argument. A null string reads as "".
func (m *Message) Str() string {
	n := int(m.Uint())
	if n == 0 {
		return ""
	}
	b := m.take(pad(n))
	if b == nil {
		return ""
	}
	// drop the NUL terminator
	return string(b[:n-1])
}

// Err returns the first decoding error, if any.
func (m *Message) Err() error {
	return m.err
}
