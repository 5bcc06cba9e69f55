// Package relay forwards device status lines to the HTTP collector
// and turns a positive drain reply into a single command byte on the same link.
package relay

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/rdrain/helpers"
	"github.com/temoto/rdrain/log2"
	"github.com/temoto/rdrain/serial"
)

const DefaultMaxFrame = 4 << 10

var ErrEmptyFrame = errors.New("empty frame")

// Relay cycle: read one frame, post it, optionally write drain byte, repeat.
// Strictly sequential, at most one request in flight.
type Relay struct {
	Stat Stat

	alive     *alive.Alive
	link      serial.Link
	closeOnce sync.Once
	frames    *LineReader
	poster    Poster
	act       *Actuator
	log       *log2.Log
}

// New takes exclusive ownership of link, Relay closes it on exit.
// Error hook of log is replaced to count reported errors.
func New(link serial.Link, poster Poster, maxFrame int, log *log2.Log) *Relay {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	self := &Relay{
		alive:  alive.NewAlive(),
		link:   link,
		poster: poster,
		log:    log,
	}
	self.frames = NewLineReader(helpers.NewStatReader(link, &self.Stat.SerialRx), maxFrame)
	self.act = NewActuator(helpers.NewStatWriter(link, &self.Stat.SerialTx))
	log.SetErrorFunc(func(error) { self.Stat.Errors.Add(1) })
	return self
}

// Step runs one cycle. Errors are *Error, use KindOf.
func (self *Relay) Step(ctx context.Context) error {
	frame, err := self.frames.ReadFrame()
	if err != nil {
		return err
	}
	self.Stat.Frames.Add(1)
	self.Stat.frameNow()
	if len(frame) == 0 {
		return NewError(KindMalformedRecord, ErrEmptyFrame)
	}
	self.log.Debugf("frame=%s", frame)

	resp, err := self.poster.Post(ctx, frame)
	if KindOf(err) == KindMalformedRecord {
		return err
	}
	self.Stat.Posts.Add(1)
	if err != nil {
		return err
	}

	drained, err := self.act.Actuate(resp)
	if drained {
		self.Stat.Drains.Add(1)
		self.log.Infof("drain requested, sent command=%q", DrainByte)
	}
	return err
}

// Run repeats Step until Stop, ctx cancel or fatal error.
// Per-frame errors are logged and counted, loop continues with next frame.
// Returns nil on requested stop. Fatal error is returned unlogged.
func (self *Relay) Run(ctx context.Context) error {
	if !self.alive.Add(1) {
		return nil
	}
	defer self.alive.Done()
	defer self.Stop()

	go func() {
		select {
		case <-ctx.Done():
			self.Stop()
		case <-self.alive.StopChan():
		}
	}()

	for {
		err := self.Step(ctx)
		if err == nil {
			continue
		}
		if !self.alive.IsRunning() || ctx.Err() != nil {
			self.log.Debugf("relay stopped err=%v", err)
			return nil
		}
		if IsFatal(err) {
			return err
		}
		self.Stat.count(err)
		if errors.Cause(err).(*Error).Err == ErrEmptyFrame {
			self.log.Debugf("skip empty line")
		} else {
			self.log.Errorf("%v", err)
		}
	}
}

// Stop closes the link to unblock pending read. Safe to call many times.
func (self *Relay) Stop() {
	self.alive.Stop()
	self.closeOnce.Do(func() {
		if err := self.link.Close(); err != nil {
			self.log.Debugf("serial close err=%v", err)
		}
	})
}

// Wait returns after Run has exited.
func (self *Relay) Wait() { self.alive.Wait() }
