package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BurntSushi/wgb/outputmgmt"
)

type setFlags struct {
	head      string
	mode      string
	scale     string
	pos       string
	transform string
	enable    bool
	disable   bool
	test      bool
}

// request checks every flag and builds the request. It runs before
// connecting, so a malformed argument never reaches the compositor.
func (f *setFlags) request(cmd *cobra.Command) (outputmgmt.Request, error) {
	req := outputmgmt.Request{Head: f.head, Test: f.test}
	if f.head == "" {
		return req, argErrorf("--head is required")
	}
	if f.enable && f.disable {
		return req, argErrorf("--enable and --disable are mutually exclusive")
	}
	if f.enable || f.disable {
		on := f.enable
		req.Enable = &on
	}
	if cmd.Flags().Changed("mode") {
		mode, err := outputmgmt.ParseMode(f.mode)
		if err != nil {
			return req, &ArgError{err}
		}
		req.Mode = &mode
	}
	if cmd.Flags().Changed("scale") {
		scale, err := strconv.ParseFloat(f.scale, 64)
		if err != nil || scale <= 0 {
			return req, argErrorf("invalid scale %q: want a positive number", f.scale)
		}
		req.Scale = &scale
	}
	if cmd.Flags().Changed("pos") {
		pos, err := outputmgmt.ParsePosition(f.pos)
		if err != nil {
			return req, &ArgError{err}
		}
		req.Position = &pos
	}
	if cmd.Flags().Changed("transform") {
		t, err := outputmgmt.ParseTransform(f.transform)
		if err != nil {
			return req, &ArgError{err}
		}
		req.Transform = &t
	}
	if f.disable && (req.Mode != nil || req.Scale != nil || req.Position != nil ||
		req.Transform != nil) {
		return req, argErrorf("--disable cannot be combined with --mode, --scale, --pos or --transform")
	}
	return req, nil
}

func newSetCmd(a *app) *cobra.Command {
	f := &setFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one head, keeping every other head as it is",
		Long: `Change one head. The configuration submitted to the compositor lists
every head: the target with the requested changes, every other head
enabled or disabled as it is now, without property changes.

Examples:
  wlr-outputs set --head DP-1 --mode 2560x1440@144 --enable
  wlr-outputs set --head eDP-1 --scale 1.25 --pos 0,0
  wlr-outputs set --head HDMI-A-1 --disable
  wlr-outputs set --head DP-1 --transform 90 --test`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}

			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if h := s.mgr.Head(req.Head); h != nil && req.Mode != nil {
				if err := s.waitModes(a, h); err != nil {
					return err
				}
			}
			plan, err := s.mgr.Plan(req)
			if err != nil {
				return err
			}
			if err := s.submit(a, plan, req.Test); err != nil {
				return err
			}
			if req.Test {
				fmt.Fprintln(a.stdout, "configuration accepted (test only)")
			}
			printPlan(a.stdout, plan)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.head, "head", "", "Head to change, e.g. DP-1")
	flags.StringVar(&f.mode, "mode", "", "Mode as WIDTHxHEIGHT or WIDTHxHEIGHT@HZ")
	flags.StringVar(&f.scale, "scale", "", "Scale factor, e.g. 1.5")
	flags.StringVar(&f.pos, "pos", "", "Position as X,Y")
	flags.StringVar(&f.transform, "transform", "", "normal, 90, 180, 270, flipped, flipped-90, flipped-180 or flipped-270")
	flags.BoolVar(&f.enable, "enable", false, "Enable the head")
	flags.BoolVar(&f.disable, "disable", false, "Disable the head")
	flags.BoolVar(&f.test, "test", false, "Only ask whether the configuration would be accepted")
	return cmd
}

// printPlan writes one line per head.
func printPlan(w io.Writer, plan []outputmgmt.HeadConfig) {
	for _, hc := range plan {
		if !hc.Enabled {
			fmt.Fprintf(w, "%s: off\n", hc.Head)
			continue
		}
		parts := []string{"on"}
		switch {
		case hc.Mode != nil:
			parts = append(parts, "mode "+modeName(hc.Mode))
		case hc.CustomMode != nil:
			parts = append(parts, "custom mode "+hc.CustomMode.String())
		}
		if hc.Position != nil {
			parts = append(parts, "at "+hc.Position.String())
		}
		if hc.Scale != nil {
			parts = append(parts, fmt.Sprintf("scale %.3g", *hc.Scale))
		}
		if hc.Transform != nil {
			parts = append(parts, "transform "+hc.Transform.String())
		}
		fmt.Fprintf(w, "%s: %s\n", hc.Head, strings.Join(parts, ", "))
	}
}

// modeName is Mode.String without the preferred marker.
func modeName(mode *outputmgmt.Mode) string {
	s := fmt.Sprintf("%dx%d", mode.Width, mode.Height)
	if mode.HasRefresh && mode.Refresh > 0 {
		s += fmt.Sprintf("@%.3fHz", mode.Hz())
	}
	return s
}
