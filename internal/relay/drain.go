package relay

import (
	"io"

	"github.com/temoto/rdrain/helpers"
)

// DrainByte tells device firmware to run prime sequence.
// Firmware expects exactly this byte with nothing after it.
const DrainByte byte = 'd'

type Actuator struct {
	w io.Writer
}

func NewActuator(w io.Writer) *Actuator { return &Actuator{w: w} }

// Actuate writes DrainByte iff r.Drain. No acknowledgement, no retry.
// Write failure is LinkFailure.
func (self *Actuator) Actuate(r Response) (bool, error) {
	if !r.Drain {
		return false, nil
	}
	if err := helpers.WriteAll(self.w, []byte{DrainByte}); err != nil {
		return false, NewError(KindLinkFailure, err)
	}
	return true, nil
}
