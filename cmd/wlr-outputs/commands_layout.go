package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BurntSushi/wgb/layout"
)

func newBestCmd(a *app) *cobra.Command {
	var apply, test bool
	cmd := &cobra.Command{
		Use:   "best",
		Short: "Pick the best head and mode, and a scale for its density",
		Long: `Pick the best head (enabled heads first, then the largest resolution,
preferred mode and refresh rate) and a scale that brings its density close
to the target PPI. Every other head would be disabled.

Without --apply or --test the decision is only printed.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apply && test {
				return argErrorf("--apply and --test are mutually exclusive")
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			opts := a.settings.layoutOptions()
			choice, scale, plan, err := layout.Best(s.mgr.Heads(), opts)
			if err != nil {
				return err
			}
			h, mode := choice.Head, choice.Mode
			fmt.Fprintf(a.stdout, "# Selected output: %s (%s %s)\n", h.Name, h.Make, h.Model)
			fmt.Fprintf(a.stdout, "# Best mode: %s | Enabled now: %t\n", mode, h.Enabled)
			if ppi, ok := layout.PPI(mode, h.PhysicalSize); ok {
				fmt.Fprintf(a.stdout, "# Physical size: %dx%d mm -> PPI %.1f -> scale %.3g (target %.0f PPI)\n",
					h.PhysicalSize.Width, h.PhysicalSize.Height, ppi, scale, opts.TargetPPI)
			} else {
				fmt.Fprintf(a.stdout, "# Physical size: unknown -> scale %.3g\n", scale)
			}
			printPlan(a.stdout, plan)

			if !apply && !test {
				return nil
			}
			return s.submit(a, plan, test)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the decision")
	cmd.Flags().BoolVar(&test, "test", false, "Only ask whether the decision would be accepted")
	return cmd
}

func newLayoutCmd(a *app) *cobra.Command {
	var test bool
	var kinds []string
	for _, k := range layout.Kinds() {
		kinds = append(kinds, string(k))
	}
	cmd := &cobra.Command{
		Use:       "layout " + strings.Join(kinds, "|"),
		Short:     "Arrange the internal panel and an external display",
		ValidArgs: kinds,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return argErrorf("layout takes exactly one of %s", strings.Join(kinds, ", "))
			}
			for _, k := range kinds {
				if args[0] == k {
					return nil
				}
			}
			return argErrorf("unknown layout %q: want one of %s", args[0], strings.Join(kinds, ", "))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			plan, err := layout.Arrange(layout.Kind(args[0]), s.mgr.Heads(), a.settings.layoutOptions())
			if err != nil {
				return err
			}
			if err := s.submit(a, plan, test); err != nil {
				return err
			}
			printPlan(a.stdout, plan)
			return nil
		},
	}
	cmd.Flags().BoolVar(&test, "test", false, "Only ask whether the layout would be accepted")
	return cmd
}
