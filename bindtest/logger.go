// Copyright © 2024 The ELPS authors

package bindtest

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/syntax"
)

// Logger writes complete lines to a test log.  It doubles as a
// binder.Tracer so that binder phases show up in verbose test output.
type Logger struct {
	mu    sync.Mutex
	t     testing.TB
	buf   []byte
	depth int
}

var (
	_ io.Writer     = (*Logger)(nil)
	_ binder.Tracer = (*Logger)(nil)
)

func NewLogger(t testing.TB) *Logger {
	return &Logger{
		t: t,
	}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.t.Log(string(log.buf[:i])) // slice does not include \n
		log.buf = log.buf[i+1:]
	}
}

func (log *Logger) Flush() {
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}

// Start implements binder.Tracer.
func (log *Logger) Start(kind, label string, loc syntax.Location) func() {
	log.mu.Lock()
	line := fmt.Sprintf("%*s%s %s (%v)\n", 2*log.depth, "", kind, label, loc)
	log.depth++
	log.mu.Unlock()
	_, _ = log.Write([]byte(line))
	return func() {
		log.mu.Lock()
		log.depth--
		log.mu.Unlock()
	}
}
