// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wgb

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrNoRuntimeDir is returned when a relative display name cannot be
// resolved because no runtime directory exists.
var ErrNoRuntimeDir = errors.New("wgb: XDG_RUNTIME_DIR not set and /run/user/<uid> missing")

// SocketPath resolves a display name to the path of the compositor socket.
// An empty name is taken from $WAYLAND_DISPLAY, defaulting to "wayland-0".
// Absolute names are used as-is; relative names are joined with
// $XDG_RUNTIME_DIR, or /run/user/<uid> when that variable is unset.
func SocketPath(display string) (string, error) {
	if len(display) == 0 {
		display = os.Getenv("WAYLAND_DISPLAY")
	}
	if len(display) == 0 {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}

	dir := os.Getenv("XDG_RUNTIME_DIR")
	if len(dir) == 0 {
		dir = filepath.Join("/run/user", strconv.Itoa(unix.Getuid()))
		if _, err := os.Stat(dir); err != nil {
			return "", ErrNoRuntimeDir
		}
	}
	return filepath.Join(dir, display), nil
}

// dial opens the compositor connection. A socket inherited through
// $WAYLAND_SOCKET takes precedence when no display is named explicitly.
func dial(display string) (net.Conn, error) {
	if len(display) == 0 {
		if s := os.Getenv("WAYLAND_SOCKET"); len(s) > 0 {
			return inheritedConn(s)
		}
	}

	path, err := SocketPath(display)
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("wgb: connect to %s: %w", path, err)
	}
	return conn, nil
}

func inheritedConn(s string) (net.Conn, error) {
	// the variable must not leak into children
	os.Unsetenv("WAYLAND_SOCKET")

	fd, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("wgb: bad WAYLAND_SOCKET %q: %w", s, err)
	}
	unix.CloseOnExec(fd)

	f := os.NewFile(uintptr(fd), "wayland-socket")
	defer f.Close()
	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("wgb: WAYLAND_SOCKET: %w", err)
	}
	return conn, nil
}
