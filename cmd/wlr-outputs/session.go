package main

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/wgb"
	"github.com/BurntSushi/wgb/outputmgmt"
)

// connect opens the compositor connection. Tests replace it.
var connect = wgb.NewConnDisplay

type session struct {
	conn *wgb.Conn
	mgr  *outputmgmt.Manager
}

// open connects, binds the output manager and waits for the first
// snapshot.
func (a *app) open() (*session, error) {
	c, err := connect(a.display)
	if err != nil {
		return nil, err
	}
	s := &session{conn: c}

	s.mgr, err = outputmgmt.Init(c, a.settings.EnumerationTimeout)
	if err != nil {
		c.Close()
		if errors.Is(err, wgb.ErrRoundtripTimeout) {
			return nil, fmt.Errorf("%w: %v", errEnumerationTimeout, err)
		}
		return nil, err
	}
	s.mgr.Tick = a.settings.Tick

	ok, err := s.mgr.WaitReady(a.settings.EnumerationTimeout)
	if err != nil {
		c.Close()
		return nil, err
	}
	if !ok {
		c.Close()
		return nil, fmt.Errorf("%w after %s", errEnumerationTimeout, a.settings.EnumerationTimeout)
	}
	return s, nil
}

// waitModes makes sure every mode of 'h' knows its size.
func (s *session) waitModes(a *app, h *outputmgmt.Head) error {
	ok, err := s.mgr.WaitModes(h, a.settings.ModeTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: modes of %s incomplete after %s",
			errEnumerationTimeout, h, a.settings.ModeTimeout)
	}
	return nil
}

// submit applies or tests 'plan' and turns the outcome into an error for
// anything but success. After an applied change it drains the snapshot the
// compositor sends in response.
func (s *session) submit(a *app, plan []outputmgmt.HeadConfig, test bool) error {
	before, _ := s.mgr.Serial()
	status, err := s.mgr.ApplyPlan(plan, test, a.settings.ResultTimeout)
	if err != nil {
		return err
	}
	if status != outputmgmt.StatusSucceeded {
		return &rejectedError{Status: status}
	}
	if serial, _ := s.mgr.Serial(); !test && serial == before {
		if _, err := s.mgr.WaitNextSerial(a.settings.Tick * 4); err != nil {
			wgb.Logger.Printf("reading state after apply: %s", err)
		}
	}
	return nil
}

func (s *session) Close() error {
	return s.conn.Close()
}
