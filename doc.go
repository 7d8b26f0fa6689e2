/*
Package WGB provides the Wayland Go Binding, a low-level API to talk to a
Wayland compositor over its wire protocol, together with bindings for the
wlr-output-management extension (package outputmgmt).

It is modeled on XGB: one Conn owns the socket, objects are registered by id,
and every protocol extension lives in a package of its own that binds its
global through the Conn. Unlike XGB there is no reader goroutine. Events are
only read and dispatched inside Conn.Dispatch, on the caller's goroutine, so
handlers never race with the code that inspects the state they build.

Example

This example connects, binds the output manager and prints every head with
its current mode.

	package main

	import (
		"fmt"
		"log"
		"time"

		"github.com/BurntSushi/wgb"
		"github.com/BurntSushi/wgb/outputmgmt"
	)

	func main() {
		W, err := wgb.NewConn()
		if err != nil {
			log.Fatal(err)
		}
		defer W.Close()

		mgr, err := outputmgmt.Init(W, time.Second)
		if err != nil {
			log.Fatal(err)
		}
		if ok, err := mgr.WaitReady(2 * time.Second); !ok || err != nil {
			log.Fatalf("no output snapshot: %v", err)
		}

		for _, head := range mgr.Heads() {
			fmt.Printf("%s: %s\n", head.Name, head.CurrentMode)
		}
	}

Dispatching

Conn.Dispatch(timeout) delivers whatever arrives within 'timeout' and
returns; it never blocks longer. Conn.WaitUntil(pred, timeout, tick) calls
Dispatch in slices of 'tick' until pred() holds. The boolean it returns is
the final value of pred(), so a timed out wait is told apart from a negative
answer by the error being nil and the result being false.

Snapshots

The output manager marks each consistent snapshot of the head/mode graph
with a serial (the "done" event). Property events arriving after a done
belong to the next snapshot. Configurations are built against the serial
current at build time; if the serial moves before submission, the
configuration is cancelled locally and never reaches the compositor.

Tests

The tests run against internal/wltest, an in-memory compositor implementing
net.Conn. It scripts heads and modes, records every request it receives and
can be told how to answer configurations (or not to answer at all).
*/
package wgb
