package wltest

import (
	"encoding/binary"
	"fmt"
	"math"
)

var le = binary.LittleEndian

// Message encodes one event from 'sender'. Arguments may be uint32, int32,
// int, string or float64 (sent as 24.8 fixed-point).
func Message(sender uint32, opcode uint16, args ...interface{}) []byte {
	buf := make([]byte, 8, 32)
	le.PutUint32(buf[0:], sender)
	for _, arg := range args {
		switch v := arg.(type) {
		case uint32:
			buf = le.AppendUint32(buf, v)
		case int32:
			buf = le.AppendUint32(buf, uint32(v))
		case int:
			buf = le.AppendUint32(buf, uint32(int32(v)))
		case float64:
			buf = le.AppendUint32(buf, uint32(int32(math.Round(v*256))))
		case string:
			n := len(v) + 1
			buf = le.AppendUint32(buf, uint32(n))
			buf = append(buf, v...)
			buf = append(buf, make([]byte, (n+3)&^3-len(v))...)
		default:
			panic(fmt.Sprintf("wltest: unsupported argument type %T", arg))
		}
	}
	le.PutUint32(buf[4:], uint32(len(buf))<<16|uint32(opcode))
	return buf
}

// request is a decoded client message.
type request struct {
	sender uint32
	opcode uint16
	body   []byte
	off    int
}

func parseRequest(msg []byte) *request {
	return &request{
		sender: le.Uint32(msg[0:]),
		opcode: uint16(le.Uint32(msg[4:]) & 0xffff),
		body:   msg[8:],
	}
}

func (r *request) u32() uint32 {
	if r.off+4 > len(r.body) {
		panic(fmt.Sprintf("wltest: short request %d/%d", r.sender, r.opcode))
	}
	v := le.Uint32(r.body[r.off:])
	r.off += 4
	return v
}

func (r *request) i32() int32 { return int32(r.u32()) }

func (r *request) str() string {
	n := int(r.u32())
	if n == 0 {
		return ""
	}
	if r.off+n > len(r.body) {
		panic(fmt.Sprintf("wltest: short string in request %d/%d", r.sender, r.opcode))
	}
	s := string(r.body[r.off : r.off+n-1])
	r.off += (n + 3) &^ 3
	return s
}
