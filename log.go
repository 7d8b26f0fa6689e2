package wgb

import (
	"fmt"
	"log"
	"os"
)

// PrintLog controls whether WGB emits diagnostics to stderr. By default, it
// is enabled.
var PrintLog = true

// Logger is the logger used for everything WGB reports on its own: events
// for objects it no longer knows about, results that arrive after the caller
// stopped waiting, and so on. Extensions should log through it as well so
// that a single PrintLog switch silences the whole stack.
var Logger = newLogger()

// wgblog is a wrapper around a log.Logger so we can control whether it
// should output anything.
type wgblog struct {
	*log.Logger
}

func newLogger() wgblog {
	return wgblog{log.New(os.Stderr, "WGB: ", log.Lshortfile)}
}

func (lg wgblog) Print(v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprint(v...))
	}
}

func (lg wgblog) Printf(format string, v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (lg wgblog) Println(v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprintln(v...))
	}
}

func (lg wgblog) Fatal(v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprint(v...))
	}
	os.Exit(1)
}

func (lg wgblog) Fatalf(format string, v ...interface{}) {
	if PrintLog {
		lg.Logger.Output(2, fmt.Sprintf(format, v...))
	}
	os.Exit(1)
}

func (lg wgblog) Panic(v ...interface{}) {
	s := fmt.Sprint(v...)
	if PrintLog {
		lg.Logger.Output(2, s)
	}
	panic(s)
}

func (lg wgblog) Panicf(format string, v ...interface{}) {
	s := fmt.Sprintf(format, v...)
	if PrintLog {
		lg.Logger.Output(2, s)
	}
	panic(s)
}
