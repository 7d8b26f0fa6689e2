package wgb

import (
	"bytes"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// ispired by https://golang.org/src/runtime/debug/stack.go?s=587:606#L21
// stack returns a formatted stack trace of all goroutines.
// It calls runtime.Stack with a large enough buffer to capture the entire trace.
func stack() []byte {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

type goroutine struct {
	id    int
	name  string
	stack []byte
}

type leaks struct {
	name       string
	goroutines map[int]goroutine
}

// leaksMonitor remembers the goroutines running now; checkTesting reports
// any started since.
func leaksMonitor(name string) leaks {
	return leaks{name, leaks{}.collectGoroutines()}
}

func (leaks) collectGoroutines() map[int]goroutine {
	res := make(map[int]goroutine)
	stacks := bytes.Split(stack(), []byte{'\n', '\n'})

	regexpId := regexp.MustCompile(`^\s*goroutine\s*(\d+)`)
	for _, st := range stacks {
		lines := bytes.Split(st, []byte{'\n'})
		if len(lines) < 2 {
			panic("routine stack has less than two lines: " + string(st))
		}

		idMatches := regexpId.FindSubmatch(lines[0])
		if len(idMatches) < 2 {
			panic("no id found in goroutine stack's first line: " + string(lines[0]))
		}
		id, err := strconv.Atoi(string(idMatches[1]))
		if err != nil {
			panic("converting goroutine id to number error: " + err.Error())
		}
		if _, ok := res[id]; ok {
			panic("2 goroutines with same id: " + strconv.Itoa(id))
		}
		res[id] = goroutine{id, strings.TrimSpace(string(lines[1])), st}
	}
	return res
}

// leakingGoroutines lists the goroutines started after the monitor.
func (l leaks) leakingGoroutines() []goroutine {
	var res []goroutine
	for id, gr := range l.collectGoroutines() {
		if _, ok := l.goroutines[id]; ok {
			continue
		}
		res = append(res, gr)
	}
	return res
}

func (l leaks) checkTesting(t *testing.T) {
	if len(l.leakingGoroutines()) == 0 {
		return
	}
	leakTimeout := time.Second
	t.Logf("possible goroutine leakage in %s, waiting %v", l.name, leakTimeout)
	time.Sleep(leakTimeout)
	grs := l.leakingGoroutines()
	if len(grs) == 0 {
		return
	}
	t.Errorf("%s: %d goroutine leaks", l.name, len(grs))
	for _, gr := range grs {
		t.Log(gr.name, "\n", string(gr.stack))
	}
}

func TestLeaks(t *testing.T) {
	lm := leaksMonitor("lm")
	if lgrs := lm.leakingGoroutines(); len(lgrs) != 0 {
		t.Errorf("leakingGoroutines returned %d leaking goroutines, want 0", len(lgrs))
	}

	done := make(chan struct{})
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		<-done
		wg.Done()
	}()

	if lgrs := lm.leakingGoroutines(); len(lgrs) != 1 {
		t.Errorf("leakingGoroutines returned %d leaking goroutines, want 1", len(lgrs))
	}

	close(done)
	wg.Wait()

	// the goroutine may still be unwinding; checkTesting waits for it
	lm.checkTesting(t)
}
