// Package wpkgsession replaces the source-side global logger, global
// output flags and global interrupt handler with fields of a single
// session record passed through every entry point (Design notes
// "Per-process singletons replaced by explicit context").
package wpkgsession

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/sdboyer/constext"
)

// Logger is a minimal wrapper around an io.Writer, mirroring golang-dep's
// log.Logger (log/logger.go): no leveled/structured logging framework is
// introduced because the teacher never uses one.
type Logger struct {
	io.Writer
	Verbose bool
}

// NewLogger returns a Logger writing to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logln logs a line unconditionally.
func (l *Logger) Logln(args ...interface{}) {
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string unconditionally.
func (l *Logger) Logf(format string, args ...interface{}) {
	fmt.Fprintf(l, format, args...)
}

// Debugf logs only when verbose output was requested.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.Verbose {
		fmt.Fprintf(l, "wpkg: "+format+"\n", args...)
	}
}

// InterruptPoll is polled through Session.CheckInterrupt, which the
// lifecycle executor calls before each package it runs; the resolver's trim
// loop and tree enumeration do not poll it. It returns true to request that
// the current operation stop.
type InterruptPoll func() bool

// ErrUserInterrupt is raised when InterruptPoll requests a stop.
var ErrUserInterrupt = fmt.Errorf("wpkg: operation interrupted by user")

// Session is the explicit context threaded through resolver, disk
// planner, executor and journal, replacing every global in the source
// material.
type Session struct {
	Root     string
	AdminDir string

	Log   *Logger
	Flags *Flags

	// Poll is consulted at each cancellation checkpoint; nil means never
	// interrupt.
	Poll InterruptPoll

	// ctx is the operation's own context (deadlines, plain cancellation);
	// interruptCtx is cancelled when Poll first reports true. WithContext
	// combines both using constext, following golang-dep's vendored
	// github.com/sdboyer/constext, which exists precisely to let two
	// independently-owned cancellation sources share one derived context.
	ctx          context.Context
	interruptCtx context.Context
	cancelInt    context.CancelFunc
}

// New builds a session bound to a root filesystem and admindir.
func New(root, adminDir string, logOut io.Writer) *Session {
	interruptCtx, cancel := context.WithCancel(context.Background())
	return &Session{
		Root:         root,
		AdminDir:     adminDir,
		Log:          NewLogger(logOut),
		Flags:        NewFlags(),
		ctx:          interruptCtx,
		interruptCtx: interruptCtx,
		cancelInt:    cancel,
	}
}

// WithContext binds the operation's own context, combined with the
// session's interrupt context via constext.Cons so that cancelling
// either source observably cancels the merged Context() (§5 Cancellation).
func (s *Session) WithContext(ctx context.Context) *Session {
	s2 := *s
	combined, cancel := constext.Cons(ctx, s.interruptCtx)
	s2.ctx = combined
	s2.cancelInt = cancel
	return &s2
}

// Context returns the session's combined operation/interrupt context.
func (s *Session) Context() context.Context { return s.ctx }

// CheckInterrupt polls the interrupt hook, if configured, and cancels the
// session's interrupt context (thereby cancelling Context()) on the first
// "stop" response. Callers at a cancellation checkpoint should then return
// ErrUserInterrupt.
func (s *Session) CheckInterrupt() error {
	select {
	case <-s.ctx.Done():
		return ErrUserInterrupt
	default:
	}
	if s.Poll != nil && s.Poll() {
		s.cancelInt()
		return ErrUserInterrupt
	}
	return nil
}

// StdLogger adapts Logger to the standard library's *log.Logger, for
// collaborators (e.g. godirwalk) that want one.
func (s *Session) StdLogger() *log.Logger {
	return log.New(s.Log, "", 0)
}
