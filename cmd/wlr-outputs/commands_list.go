package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BurntSushi/wgb/outputmgmt"
)

type listJSON struct {
	Heads []headJSON `json:"heads"`
}

type headJSON struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Make         string     `json:"make,omitempty"`
	Model        string     `json:"model,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	Enabled      bool       `json:"enabled"`
	X            int32      `json:"x"`
	Y            int32      `json:"y"`
	Scale        float64    `json:"scale"`
	Transform    string     `json:"transform"`
	PhysicalW    int32      `json:"physical_width_mm"`
	PhysicalH    int32      `json:"physical_height_mm"`
	AdaptiveSync bool       `json:"adaptive_sync"`
	CurrentMode  *modeJSON  `json:"current_mode,omitempty"`
	Modes        []modeJSON `json:"modes"`
}

type modeJSON struct {
	Width     int32 `json:"width"`
	Height    int32 `json:"height"`
	Refresh   int32 `json:"refresh,omitempty"` // mHz
	Preferred bool  `json:"preferred"`
	Current   bool  `json:"current"`
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List heads and their modes",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			heads := s.mgr.Heads()
			if asJSON {
				return writeJSON(a.stdout, heads)
			}
			writeText(a.stdout, heads)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return argErrorf("%s takes no arguments, got %q", cmd.Name(), args)
	}
	return nil
}

func toModeJSON(h *outputmgmt.Head, mode *outputmgmt.Mode) modeJSON {
	mj := modeJSON{
		Width:     mode.Width,
		Height:    mode.Height,
		Preferred: mode.Preferred,
		Current:   mode == h.CurrentMode,
	}
	if mode.HasRefresh {
		mj.Refresh = mode.Refresh
	}
	return mj
}

func writeJSON(w io.Writer, heads []*outputmgmt.Head) error {
	out := listJSON{Heads: []headJSON{}}
	for _, h := range heads {
		hj := headJSON{
			Name:         h.Name,
			Description:  h.Description,
			Make:         h.Make,
			Model:        h.Model,
			SerialNumber: h.SerialNumber,
			Enabled:      h.Enabled,
			X:            h.Position.X,
			Y:            h.Position.Y,
			Scale:        h.Scale,
			Transform:    h.Transform.String(),
			PhysicalW:    h.PhysicalSize.Width,
			PhysicalH:    h.PhysicalSize.Height,
			AdaptiveSync: h.AdaptiveSync,
			Modes:        []modeJSON{},
		}
		if h.CurrentMode != nil {
			cm := toModeJSON(h, h.CurrentMode)
			hj.CurrentMode = &cm
		}
		for _, mode := range h.LiveModes() {
			hj.Modes = append(hj.Modes, toModeJSON(h, mode))
		}
		out.Heads = append(out.Heads, hj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeText(w io.Writer, heads []*outputmgmt.Head) {
	for i, h := range heads {
		if i > 0 {
			fmt.Fprintln(w)
		}
		status := "enabled"
		if !h.Enabled {
			status = "disabled"
		}
		fmt.Fprintf(w, "%s \"%s\" (%s)\n", h.Name, h.Description, status)
		if h.Make != "" || h.Model != "" {
			fmt.Fprintf(w, "  Make:          %s\n", h.Make)
			fmt.Fprintf(w, "  Model:         %s\n", h.Model)
		}
		if h.SerialNumber != "" {
			fmt.Fprintf(w, "  Serial:        %s\n", h.SerialNumber)
		}
		if h.PhysicalSize.Width > 0 && h.PhysicalSize.Height > 0 {
			fmt.Fprintf(w, "  Physical size: %dx%d mm\n",
				h.PhysicalSize.Width, h.PhysicalSize.Height)
		}
		if h.Enabled {
			fmt.Fprintf(w, "  Position:      %s\n", h.Position)
			fmt.Fprintf(w, "  Scale:         %.4g\n", h.Scale)
			fmt.Fprintf(w, "  Transform:     %s\n", h.Transform)
			fmt.Fprintf(w, "  Current mode:  %s\n", h.CurrentMode)
		}
		if h.AdaptiveSync {
			fmt.Fprintf(w, "  Adaptive sync: enabled\n")
		}
		fmt.Fprintf(w, "  Modes:\n")
		for _, mode := range h.LiveModes() {
			suffix := ""
			if mode == h.CurrentMode {
				suffix = " (current)"
			}
			fmt.Fprintf(w, "    %s%s\n", mode, suffix)
		}
	}
}
