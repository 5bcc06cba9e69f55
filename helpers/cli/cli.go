// Package cli is the shared process plumbing of rdrain commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/rdrain/log2"
)

// NewLog picks flags by environment: under systemd the journal adds timestamps,
// an interactive terminal gets microseconds.
func NewLog(debug bool) *log2.Log {
	level := log2.LInfo
	if debug {
		level = log2.LDebug
	}
	log := log2.NewStderr(level)
	switch {
	case SdNotify(log, "start"):
		log.SetFlags(log2.LServiceFlags)
	case isatty.IsTerminal(os.Stderr.Fd()):
		log.SetFlags(log2.LInteractiveFlags)
	default:
		log.SetFlags(log2.LStdFlags)
	}
	return log
}

// SdNotify returns false when not running under systemd.
func SdNotify(log *log2.Log, s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}

// SignalContext is cancelled on first termination signal.
// Second signal exits immediately.
func SignalContext(parent context.Context, log *log2.Log) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		select {
		case s := <-signalCh:
			log.Infof("signal=%v, stopping", s)
			cancel()
		case <-ctx.Done():
			signal.Stop(signalCh)
			return
		}
		s := <-signalCh
		log.Errorf("signal=%v again, exit now", s)
		os.Exit(1)
	}()
	return ctx, cancel
}
