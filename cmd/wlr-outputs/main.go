// Command wlr-outputs lists and configures the outputs of a wlroots based
// compositor through wlr-output-management.
//
// Exit codes:
//
//	0  success
//	1  any other error (connection, protocol)
//	2  output management not supported, or a malformed argument
//	3  timed out enumerating heads or modes
//	4  head not found
//	5  timed out waiting for the configuration result
//	6  configuration failed or was cancelled
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BurntSushi/wgb"
	"github.com/BurntSushi/wgb/layout"
	"github.com/BurntSushi/wgb/outputmgmt"
)

const (
	exitOK = iota
	exitError
	exitUsage
	exitEnumerationTimeout
	exitHeadNotFound
	exitResultTimeout
	exitRejected
)

// ArgError is a malformed command line or settings file.
type ArgError struct {
	Err error
}

func (e *ArgError) Error() string { return e.Err.Error() }
func (e *ArgError) Unwrap() error { return e.Err }

func argErrorf(format string, args ...interface{}) error {
	return &ArgError{fmt.Errorf(format, args...)}
}

// errEnumerationTimeout is returned when the snapshot does not arrive in
// time.
var errEnumerationTimeout = errors.New("timed out waiting for the output snapshot")

// rejectedError is a configuration the compositor failed or cancelled.
type rejectedError struct {
	Status outputmgmt.Status
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("configuration %s", e.Status)
}

func exitCode(err error) int {
	var (
		argErr      *ArgError
		notFound    *outputmgmt.HeadNotFoundError
		rejectedErr *rejectedError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &argErr),
		errors.Is(err, outputmgmt.ErrNotSupported),
		errors.Is(err, outputmgmt.ErrInvalidPlan),
		errors.Is(err, layout.ErrUnknownLayout):
		return exitUsage
	case errors.Is(err, errEnumerationTimeout):
		return exitEnumerationTimeout
	case errors.As(err, &notFound),
		errors.Is(err, layout.ErrNoInternal),
		errors.Is(err, layout.ErrNoExternal),
		errors.Is(err, layout.ErrNoHeads):
		return exitHeadNotFound
	case errors.Is(err, outputmgmt.ErrResultTimeout):
		return exitResultTimeout
	case errors.As(err, &rejectedErr),
		errors.Is(err, outputmgmt.ErrStaleSerial):
		return exitRejected
	}
	return exitError
}

// app carries what every subcommand shares.
type app struct {
	stdout, stderr io.Writer

	configPath string
	display    string
	quiet      bool
	settings   Settings
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, settings: DefaultSettings()}
	var enumTimeout, resultTimeout time.Duration

	root := &cobra.Command{
		Use:   "wlr-outputs",
		Short: "List and configure Wayland outputs",
		Long: `List and configure the outputs (heads) of a wlroots based compositor
through the wlr-output-management protocol. Every change is submitted as
one atomic configuration covering all heads.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return argErrorf("unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			wgb.PrintLog = !a.quiet

			s, err := Load(a.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return &ArgError{err}
			}
			if cmd.Flags().Changed("timeout") {
				s.EnumerationTimeout = enumTimeout
			}
			if cmd.Flags().Changed("result-timeout") {
				s.ResultTimeout = resultTimeout
			}
			if err := Validate(&s); err != nil {
				return &ArgError{err}
			}
			a.settings = s
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ArgError{err}
	})

	root.PersistentFlags().StringVar(&a.configPath, "config", DefaultPath(), "Settings file")
	root.PersistentFlags().StringVar(&a.display, "display", "", "Wayland display (default $WAYLAND_DISPLAY)")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Do not log protocol warnings")
	root.PersistentFlags().DurationVar(&enumTimeout, "timeout", 0, "How long to wait for the output snapshot")
	root.PersistentFlags().DurationVar(&resultTimeout, "result-timeout", 0, "How long to wait for a configuration result")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newSetCmd(a))
	root.AddCommand(newBestCmd(a))
	root.AddCommand(newLayoutCmd(a))
	return root
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "wlr-outputs: %v\n", err)
	}
	return exitCode(err)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
