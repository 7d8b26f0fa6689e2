// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package outputmgmt is the WGB binding of wlr-output-management-unstable-v1.
//
// The compositor pushes the state of every head (output) and its modes as a
// stream of property events, closed by a manager "done" carrying a serial.
// The types in this package are plain records filled in by those events;
// Manager.Ready and Manager.WaitReady tell when the first snapshot is
// complete. Changes are requested through Configurations, which must describe
// every head and are committed or rejected by the compositor as a unit.
package outputmgmt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/wgb"
)

// Interface names, as announced by the registry.
const (
	ManagerInterface           = "zwlr_output_manager_v1"
	HeadInterface              = "zwlr_output_head_v1"
	ModeInterface              = "zwlr_output_mode_v1"
	ConfigurationInterface     = "zwlr_output_configuration_v1"
	ConfigurationHeadInterface = "zwlr_output_configuration_head_v1"
)

// MaxVersion is the newest protocol version this package speaks.
const MaxVersion = 4

// versions maps every global this package binds to the highest version it
// understands. Heads, modes and configurations are created by the manager
// and share its version.
var versions = map[string]uint32{
	ManagerInterface: MaxVersion,
}

var (
	// ErrNotSupported means the compositor does not announce the output
	// manager global.
	ErrNotSupported = errors.New("outputmgmt: " + ManagerInterface +
		" not offered by the compositor")

	// ErrManagerFinished is returned for configurations against a manager
	// the compositor has torn down.
	ErrManagerFinished = errors.New("outputmgmt: output manager finished")

	// ErrNoSerial is returned when building a configuration before the
	// first snapshot was completed.
	ErrNoSerial = errors.New("outputmgmt: no serial received yet")

	// ErrInFlight is returned when a configuration is submitted while an
	// earlier one still awaits its result.
	ErrInFlight = errors.New("outputmgmt: another configuration is in flight")

	// ErrStaleSerial is returned when the snapshot moved between building a
	// configuration and submitting it. Nothing was sent; re-read the heads
	// and build a new configuration.
	ErrStaleSerial = errors.New("outputmgmt: serial changed since the configuration was built")

	// ErrResultTimeout is returned when the compositor did not answer a
	// submitted configuration in time. It may still take effect.
	ErrResultTimeout = errors.New("outputmgmt: timed out waiting for configuration result")

	// ErrAlreadySubmitted is returned when a configuration is used twice.
	ErrAlreadySubmitted = errors.New("outputmgmt: configuration already submitted")

	// ErrInvalidPlan wraps every plan validation failure.
	ErrInvalidPlan = errors.New("outputmgmt: invalid configuration plan")
)

// HeadNotFoundError is returned when a request names a head that is not in
// the current snapshot. Available lists the valid names.
type HeadNotFoundError struct {
	Name      string
	Available []string
}

func (e *HeadNotFoundError) Error() string {
	return fmt.Sprintf("outputmgmt: head %q not found (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// Init binds the output manager global of 'c'. It performs one roundtrip so
// that every global announced at connection time has been seen, and returns
// ErrNotSupported when the compositor lacks the protocol.
//
// Binding happens from the registry handler as soon as the global is
// announced; the compositor then pushes the heads on its own, so callers
// should follow up with Manager.WaitReady.
func Init(c *wgb.Conn, timeout time.Duration) (*Manager, error) {
	var (
		mgr     *Manager
		bindErr error
	)
	for iface, max := range versions {
		iface, max := iface, max
		c.HandleGlobal(iface, func(g wgb.Global) {
			if mgr != nil || bindErr != nil {
				return
			}
			m := newManager(c, c.NewId(), min(g.Version, max))
			if err := c.Bind(g, m.version, m); err != nil {
				bindErr = fmt.Errorf("outputmgmt: bind %s: %w", iface, err)
				return
			}
			mgr = m
		})
	}

	if err := c.Roundtrip(timeout); err != nil {
		return nil, err
	}
	if bindErr != nil {
		return nil, bindErr
	}
	if mgr == nil {
		return nil, ErrNotSupported
	}
	return mgr, nil
}
