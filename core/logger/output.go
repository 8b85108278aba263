package logger

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter fans lines out to every sink from a single goroutine.
type asyncWriter struct {
	sinks   []io.Writer
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(sinks []io.Writer, queue int) *asyncWriter {
	if queue <= 0 {
		queue = 256
	}
	w := &asyncWriter{
		lines:   make(chan []byte, queue),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
	}
	for _, s := range sinks {
		if s != nil {
			w.sinks = append(w.sinks, s)
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.emit(line)
		case ack := <-w.flushes:
			w.drain()
			ack <- w.firstErr()
		}
	}
}

func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.emit(line)
		default:
			return
		}
	}
}

func (w *asyncWriter) emit(line []byte) {
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			w.errMu.Lock()
			if w.err == nil {
				w.err = err
			}
			w.errMu.Unlock()
		}
	}
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

// Write queues a copy of line. It blocks when the queue is full.
func (w *asyncWriter) Write(line []byte) error {
	if len(line) == 0 {
		return nil
	}
	if err := w.firstErr(); err != nil {
		return err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- bytes.Clone(line)
	return nil
}

// Flush returns once every line queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.stopped:
		return w.firstErr()
	}
}

// Close drains the queue and stops the writer.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.stopped
	return w.firstErr()
}

// ratioSampler lets keep out of every events through. A zero ratio lets
// everything through.
type ratioSampler struct {
	keep  atomic.Int64
	every atomic.Int64
	seen  atomic.Uint64
}

func (s *ratioSampler) set(keep, every int) {
	if keep <= 0 || every <= 0 {
		keep, every = 0, 0
	}
	s.keep.Store(int64(min(keep, every)))
	s.every.Store(int64(every))
	s.seen.Store(0)
}

func (s *ratioSampler) allow() bool {
	every := s.every.Load()
	if every <= 0 {
		return true
	}
	n := s.seen.Add(1) - 1
	return int64(n%uint64(every)) < s.keep.Load()
}

// parseSampleRatio reads "keep/every" or "every" (meaning 1/every). "0" and
// "off" disable sampling; anything unreadable falls back to 1/50.
func parseSampleRatio(spec string) (keep, every int) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch spec {
	case "":
		return 1, 50
	case "0", "off":
		return 0, 0
	}
	if a, b, ok := strings.Cut(spec, "/"); ok {
		k, err1 := strconv.Atoi(strings.TrimSpace(a))
		e, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 == nil && err2 == nil && k > 0 && e > 0 {
			return k, e
		}
		return 1, 50
	}
	if e, err := strconv.Atoi(spec); err == nil && e > 0 {
		return 1, e
	}
	return 1, 50
}
