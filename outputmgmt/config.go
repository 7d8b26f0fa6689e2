package outputmgmt

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/BurntSushi/wgb"
)

const (
	configEnableHead  = 0
	configDisableHead = 1
	configApply       = 2
	configTest        = 3
	configDestroy     = 4

	configEventSucceeded = 0
	configEventFailed    = 1
	configEventCancelled = 2

	configHeadSetMode       = 0
	configHeadSetCustomMode = 1
	configHeadSetPosition   = 2
	configHeadSetTransform  = 3
	configHeadSetScale      = 4
)

// ErrNotSubmitted is returned by Await on a configuration that was never
// applied or tested.
var ErrNotSubmitted = errors.New("outputmgmt: configuration not submitted")

// Status is the outcome of a configuration.
type Status int

const (
	StatusPending Status = iota
	StatusSucceeded
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HeadConfig is the disposition of one head in a configuration. A disabled
// head must not carry properties. For an enabled head, nil fields are left
// to the compositor. Mode and CustomMode are mutually exclusive.
type HeadConfig struct {
	Head    *Head
	Enabled bool

	Mode       *Mode
	CustomMode *ModeRequest
	Position   *Position
	Scale      *float64
	Transform  *Transform
}

func (hc HeadConfig) hasProperties() bool {
	return hc.Mode != nil || hc.CustomMode != nil || hc.Position != nil ||
		hc.Scale != nil || hc.Transform != nil
}

func (hc HeadConfig) validate(m *Manager) error {
	h := hc.Head
	switch {
	case h == nil:
		return fmt.Errorf("%w: nil head", ErrInvalidPlan)
	case h.m != m:
		return fmt.Errorf("%w: head %s belongs to another manager", ErrInvalidPlan, h)
	case h.Finished:
		return fmt.Errorf("%w: head %s is gone", ErrInvalidPlan, h)
	}
	if !hc.Enabled {
		if hc.hasProperties() {
			return fmt.Errorf("%w: head %s is disabled but has properties",
				ErrInvalidPlan, h)
		}
		return nil
	}
	if hc.Mode != nil && hc.CustomMode != nil {
		return fmt.Errorf("%w: head %s has both a mode and a custom mode",
			ErrInvalidPlan, h)
	}
	if mode := hc.Mode; mode != nil {
		if mode.head != h {
			return fmt.Errorf("%w: mode %s is not a mode of head %s",
				ErrInvalidPlan, mode, h)
		}
		if mode.Finished {
			return fmt.Errorf("%w: mode %s of head %s is gone", ErrInvalidPlan, mode, h)
		}
	}
	if cm := hc.CustomMode; cm != nil {
		if cm.Width <= 0 || cm.Height <= 0 || cm.Refresh < 0 {
			return fmt.Errorf("%w: head %s: invalid custom mode %s", ErrInvalidPlan, h, cm)
		}
	}
	if s := hc.Scale; s != nil {
		if *s <= 0 || math.IsNaN(*s) || math.IsInf(*s, 0) {
			return fmt.Errorf("%w: head %s: invalid scale %v", ErrInvalidPlan, h, *s)
		}
	}
	if t := hc.Transform; t != nil && !t.Valid() {
		return fmt.Errorf("%w: head %s: invalid transform %d", ErrInvalidPlan, h, int32(*t))
	}
	return nil
}

// Configuration is one atomic change request, built against the serial that
// was current when Configure was called. It is single use: Apply or Test it
// once, then Await the result.
type Configuration struct {
	m      *Manager
	id     uint32
	serial uint32
	plan   []HeadConfig

	submitted bool
	status    Status

	abandoned  bool
	late       bool
	lateStatus Status
}

// Configure validates 'plan' and captures the current serial. The plan must
// list every live head exactly once. Nothing is sent to the compositor until
// Apply or Test.
func (m *Manager) Configure(plan []HeadConfig) (*Configuration, error) {
	if m.finished {
		return nil, ErrManagerFinished
	}
	if !m.hasSerial {
		return nil, ErrNoSerial
	}

	seen := make(map[*Head]bool, len(plan))
	for _, hc := range plan {
		if err := hc.validate(m); err != nil {
			return nil, err
		}
		if seen[hc.Head] {
			return nil, fmt.Errorf("%w: head %s listed twice", ErrInvalidPlan, hc.Head)
		}
		seen[hc.Head] = true
	}
	for _, h := range m.Heads() {
		if !seen[h] {
			return nil, fmt.Errorf("%w: head %s is missing", ErrInvalidPlan, h)
		}
	}

	return &Configuration{
		m:      m,
		serial: m.serial,
		plan:   append([]HeadConfig(nil), plan...),
	}, nil
}

func (cfg *Configuration) ID() uint32 { return cfg.id }

// Serial is the manager serial the configuration was built against.
func (cfg *Configuration) Serial() uint32 { return cfg.serial }

// Plan returns a copy of the head dispositions.
func (cfg *Configuration) Plan() []HeadConfig {
	return append([]HeadConfig(nil), cfg.plan...)
}

// Status is the current outcome; StatusPending until a result arrives.
func (cfg *Configuration) Status() Status { return cfg.status }

// Abandoned reports whether Await gave up on the result.
func (cfg *Configuration) Abandoned() bool { return cfg.abandoned }

// Late returns the result that arrived after the configuration was
// abandoned. It is informational only: the heads have been updated by the
// compositor's own events, and nothing else is reconciled.
func (cfg *Configuration) Late() (Status, bool) { return cfg.lateStatus, cfg.late }

// Apply asks the compositor to commit the configuration.
func (cfg *Configuration) Apply() error { return cfg.submit(configApply) }

// Test asks the compositor whether the configuration would be accepted,
// without committing it.
func (cfg *Configuration) Test() error { return cfg.submit(configTest) }

func (cfg *Configuration) submit(op uint16) error {
	m := cfg.m
	switch {
	case cfg.submitted:
		return ErrAlreadySubmitted
	case m.finished:
		return ErrManagerFinished
	case m.inflight != nil:
		return ErrInFlight
	}

	cfg.submitted = true
	if m.serial != cfg.serial {
		cfg.status = StatusCancelled
		return fmt.Errorf("%w (built for %d, now %d)", ErrStaleSerial, cfg.serial, m.serial)
	}

	c := m.c
	cfg.id = c.NewId()
	if err := c.Register(cfg); err != nil {
		return err
	}
	err := c.Send(wgb.NewRequest(m.id, managerCreateConfiguration).
		Uint(cfg.id).Uint(cfg.serial))
	if err != nil {
		return err
	}
	for _, hc := range cfg.plan {
		if err := cfg.sendHead(hc); err != nil {
			return err
		}
	}
	if err := c.Send(wgb.NewRequest(cfg.id, op)); err != nil {
		return err
	}
	m.inflight = cfg
	return nil
}

func (cfg *Configuration) sendHead(hc HeadConfig) error {
	c := cfg.m.c
	if !hc.Enabled {
		return c.Send(wgb.NewRequest(cfg.id, configDisableHead).Object(hc.Head))
	}

	// configuration heads have no events and are destroyed together with
	// the configuration, so they are never registered.
	id := c.NewId()
	if err := c.Send(wgb.NewRequest(cfg.id, configEnableHead).
		Uint(id).Object(hc.Head)); err != nil {
		return err
	}

	var reqs []*wgb.Request
	switch {
	case hc.Mode != nil:
		reqs = append(reqs, wgb.NewRequest(id, configHeadSetMode).Object(hc.Mode))
	case hc.CustomMode != nil:
		cm := hc.CustomMode
		reqs = append(reqs, wgb.NewRequest(id, configHeadSetCustomMode).
			Int(cm.Width).Int(cm.Height).Int(cm.Refresh))
	}
	if p := hc.Position; p != nil {
		reqs = append(reqs, wgb.NewRequest(id, configHeadSetPosition).Int(p.X).Int(p.Y))
	}
	if t := hc.Transform; t != nil {
		reqs = append(reqs, wgb.NewRequest(id, configHeadSetTransform).Int(int32(*t)))
	}
	if s := hc.Scale; s != nil {
		reqs = append(reqs, wgb.NewRequest(id, configHeadSetScale).Fixed(*s))
	}
	for _, r := range reqs {
		if err := c.Send(r); err != nil {
			return err
		}
	}
	return nil
}

// Await dispatches until the compositor answers or 'timeout' elapses. A
// timeout returns ErrResultTimeout with StatusPending; the configuration is
// then abandoned and no longer blocks new ones. A configuration cancelled
// locally for a stale serial returns StatusCancelled right away.
func (cfg *Configuration) Await(timeout time.Duration) (Status, error) {
	if cfg.status != StatusPending {
		return cfg.status, nil
	}
	if !cfg.submitted {
		return cfg.status, ErrNotSubmitted
	}
	if cfg.abandoned {
		return cfg.status, ErrResultTimeout
	}

	m := cfg.m
	done := func() bool { return cfg.status != StatusPending || m.finished }
	if _, err := m.c.WaitUntil(done, timeout, m.Tick); err != nil {
		return cfg.status, err
	}
	switch {
	case cfg.status != StatusPending:
		return cfg.status, nil
	case m.finished:
		return cfg.status, ErrManagerFinished
	}

	cfg.abandoned = true
	if m.inflight == cfg {
		m.inflight = nil
	}
	return cfg.status, fmt.Errorf("%w after %s", ErrResultTimeout, timeout)
}

func (cfg *Configuration) Dispatch(msg *wgb.Message) error {
	var status Status
	switch msg.Opcode {
	case configEventSucceeded:
		status = StatusSucceeded
	case configEventFailed:
		status = StatusFailed
	case configEventCancelled:
		status = StatusCancelled
	default:
		wgb.Logger.Printf("unknown %s event %d", ConfigurationInterface, msg.Opcode)
		return nil
	}

	if cfg.abandoned {
		cfg.late, cfg.lateStatus = true, status
		wgb.Logger.Printf("configuration %d: late result %q after timeout",
			cfg.id, status)
	} else {
		cfg.status = status
	}

	m := cfg.m
	if m.inflight == cfg {
		m.inflight = nil
	}
	if err := m.c.Send(wgb.NewRequest(cfg.id, configDestroy)); err != nil {
		wgb.Logger.Printf("destroy configuration %d: %s", cfg.id, err)
	}
	m.c.Forget(cfg.id)
	return nil
}
