package outputmgmt

import (
	"errors"
	"fmt"
	"time"
)

// Request describes a change to a single head. Nil fields are left alone.
// Every other head keeps its enabled state and gets no property requests.
type Request struct {
	Head      string
	Mode      *ModeRequest
	Position  *Position
	Scale     *float64
	Transform *Transform
	Enable    *bool
	Test      bool
}

func (req Request) hasProperties() bool {
	return req.Mode != nil || req.Position != nil || req.Scale != nil ||
		req.Transform != nil
}

// Plan turns 'req' into a complete plan over the current snapshot.
//
// The target head is enabled when Enable says so, or when it is asked for
// properties; asking a head to be disabled and given properties at once is
// an error. A requested mode is resolved with FindMode, falling back to a
// custom mode when the head has no native mode of that size.
func (m *Manager) Plan(req Request) ([]HeadConfig, error) {
	target := m.Head(req.Head)
	if target == nil {
		return nil, &HeadNotFoundError{Name: req.Head, Available: m.HeadNames()}
	}

	enabled := target.Enabled
	if req.hasProperties() {
		enabled = true
	}
	if req.Enable != nil {
		if !*req.Enable && req.hasProperties() {
			return nil, fmt.Errorf("%w: cannot disable %s and change its properties",
				ErrInvalidPlan, target)
		}
		enabled = *req.Enable
	}

	var plan []HeadConfig
	for _, h := range m.Heads() {
		if h != target {
			plan = append(plan, HeadConfig{Head: h, Enabled: h.Enabled})
			continue
		}
		hc := HeadConfig{
			Head:      h,
			Enabled:   enabled,
			Position:  req.Position,
			Scale:     req.Scale,
			Transform: req.Transform,
		}
		if req.Mode != nil {
			if mode := h.FindMode(*req.Mode); mode != nil {
				hc.Mode = mode
			} else {
				custom := *req.Mode
				hc.CustomMode = &custom
			}
		}
		plan = append(plan, hc)
	}
	return plan, nil
}

// ApplyPlan builds a configuration from 'plan', submits it (as a test when
// 'test' is set) and waits up to 'timeout' for the result.
func (m *Manager) ApplyPlan(plan []HeadConfig, test bool, timeout time.Duration) (Status, error) {
	cfg, err := m.Configure(plan)
	if err != nil {
		return StatusPending, err
	}
	if test {
		err = cfg.Test()
	} else {
		err = cfg.Apply()
	}
	if err != nil {
		if errors.Is(err, ErrStaleSerial) {
			return StatusCancelled, err
		}
		return StatusPending, err
	}
	return cfg.Await(timeout)
}

// Set plans 'req' and applies (or tests) it.
func (m *Manager) Set(req Request, timeout time.Duration) (Status, error) {
	plan, err := m.Plan(req)
	if err != nil {
		return StatusPending, err
	}
	return m.ApplyPlan(plan, req.Test, timeout)
}
