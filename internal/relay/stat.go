package relay

import (
	"expvar"
	"fmt"
	"time"

	"github.com/temoto/rdrain/helpers/atomic_clock"
)

// Stat counters are safe to read while relay is running.
type Stat struct {
	Frames             expvar.Int
	MalformedRecords   expvar.Int
	Posts              expvar.Int
	UplinkFailures     expvar.Int
	MalformedResponses expvar.Int
	Drains             expvar.Int
	SerialRx           expvar.Int
	SerialTx           expvar.Int
	Errors             expvar.Int // reported to log

	lastFrame atomic_clock.Clock
}

func (self *Stat) count(err error) {
	switch KindOf(err) {
	case KindMalformedRecord:
		self.MalformedRecords.Add(1)
	case KindUplinkFailure:
		self.UplinkFailures.Add(1)
	case KindMalformedResponse:
		self.MalformedResponses.Add(1)
	}
}

func (self *Stat) frameNow() { self.lastFrame.SetNow() }

// LastFrame is zero before first frame.
func (self *Stat) LastFrame() time.Time { return self.lastFrame.Time() }

func (self *Stat) String() string {
	last := "never"
	if !self.lastFrame.IsZero() {
		last = atomic_clock.Since(&self.lastFrame).Truncate(time.Second).String() + " ago"
	}
	return fmt.Sprintf("last_frame=%s frames=%d malformed_records=%d posts=%d uplink_failures=%d malformed_responses=%d drains=%d serial_rx=%d serial_tx=%d errors=%d",
		last, self.Frames.Value(), self.MalformedRecords.Value(), self.Posts.Value(),
		self.UplinkFailures.Value(), self.MalformedResponses.Value(), self.Drains.Value(),
		self.SerialRx.Value(), self.SerialTx.Value(), self.Errors.Value())
}
