package collector

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/juju/errors"
)

// Flag is a boolean that firmware may print as true/false or 1/0.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "true":
		*f = true
		return nil
	case "false", "null":
		*f = false
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return errors.NotValidf("flag value=%s", b)
	}
	*f = n != 0
	return nil
}

// PostBody is the device status record as printed on serial line.
// Times are device uptime milliseconds.
type PostBody struct {
	CurrentTemperature float64 `json:"currentTemperature"`
	IsFrozen           Flag    `json:"isFrozen"`
	CurrentTime        int64   `json:"currentTime"`
	TimeOfLastPrime    int64   `json:"timeOfLastPrime"`
	TimeOfLastDrain    int64   `json:"timeOfLastDrain"`
	TimeOfNextPrime    int64   `json:"timeOfNextPrime"`
	IsDraining         Flag    `json:"isDraining"`
	Message            string  `json:"message"`
}

type State struct {
	Updated            time.Time `json:"updated"`
	CurrentTemperature float64   `json:"currentTemperature"`
	IsFrozen           bool      `json:"isFrozen"`
	TimeOfLastPrime    time.Time `json:"timeOfLastPrime"`
	TimeOfLastDrain    time.Time `json:"timeOfLastDrain"`
	TimeOfNextPrime    time.Time `json:"timeOfNextPrime"`
	IsDraining         bool      `json:"isDraining"`
	Message            string    `json:"message"`
}

// State converts device uptimes to wall clock relative to receipt time now.
func (b *PostBody) State(now time.Time) State {
	at := func(ms int64) time.Time {
		return now.Add(-time.Duration(b.CurrentTime-ms) * time.Millisecond)
	}
	return State{
		Updated:            now,
		CurrentTemperature: b.CurrentTemperature,
		IsFrozen:           bool(b.IsFrozen),
		TimeOfLastPrime:    at(b.TimeOfLastPrime),
		TimeOfLastDrain:    at(b.TimeOfLastDrain),
		TimeOfNextPrime:    at(b.TimeOfNextPrime),
		IsDraining:         bool(b.IsDraining),
		Message:            b.Message,
	}
}

type DrainReply struct {
	Drain bool `json:"drain"`
}

var _ json.Unmarshaler = new(Flag)
