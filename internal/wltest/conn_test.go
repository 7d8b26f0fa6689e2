package wltest

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnReadDeadline(t *testing.T) {
	c := newConn("t", func([]byte) {})
	buf := make([]byte, 16)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	start := time.Now()
	n, err := c.Read(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	// already expired
	require.NoError(t, c.SetReadDeadline(time.Now().Add(-time.Second)))
	_, err = c.Read(buf)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestConnReadWakes(t *testing.T) {
	c := newConn("t", func([]byte) {})
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.mu.Lock()
		c.queue([]byte{1, 2, 3})
		c.mu.Unlock()
	}()

	buf := make([]byte, 2)
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, buf[:n])
	n, err = c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, buf[:n])

	// moving the deadline into the past unblocks a waiting read
	result := make(chan error, 1)
	go func() {
		_, err := c.Read(buf)
		result <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.SetDeadline(time.Now()))
	select {
	case err := <-result:
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("Read did not return after the deadline moved")
	}
}

func TestConnClose(t *testing.T) {
	c := newConn("t", func([]byte) {})
	result := make(chan error, 1)
	go func() {
		_, err := c.Read(make([]byte, 8))
		result <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-result:
		assert.Equal(t, io.EOF, err)
	case <-time.After(time.Second):
		t.Fatal("Read did not return after Close")
	}
	_, err := c.Write([]byte{0})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Close(), ErrClosed)
}

func TestConnWriteSplitsMessages(t *testing.T) {
	var got [][]byte
	c := newConn("t", func(msg []byte) { got = append(got, msg) })

	a := Message(1, 0, uint32(7))
	b := Message(2, 1, "hello")
	stream := append(append([]byte(nil), a...), b...)

	n, err := c.Write(stream[:5])
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Empty(t, got)

	_, err = c.Write(stream[5 : len(a)+3])
	require.NoError(t, err)
	assert.Equal(t, [][]byte{a}, got)

	_, err = c.Write(stream[len(a)+3:])
	require.NoError(t, err)
	assert.Equal(t, [][]byte{a, b}, got)

	c.FailWrites(true)
	_, err = c.Write(a)
	assert.True(t, errors.Is(err, ErrWrite))
	c.FailWrites(false)
	_, err = c.Write(a)
	assert.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMessage(t *testing.T) {
	msg := Message(3, 2, uint32(1), int32(-1), "ab", 1.5)
	assert.Equal(t, []byte{
		3, 0, 0, 0,
		2, 0, 28, 0,
		1, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff,
		3, 0, 0, 0, 'a', 'b', 0, 0,
		0x80, 1, 0, 0,
	}, msg)

	r := parseRequest(msg)
	assert.Equal(t, uint32(3), r.sender)
	assert.Equal(t, uint16(2), r.opcode)
	assert.Equal(t, uint32(1), r.u32())
	assert.Equal(t, int32(-1), r.i32())
	assert.Equal(t, "ab", r.str())
	assert.Equal(t, int32(384), r.i32())
	assert.Panics(t, func() { r.u32() })
}
