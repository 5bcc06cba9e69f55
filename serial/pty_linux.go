package serial

import (
	"os"
	"strconv"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// OpenPty returns pseudo terminal master and slave device path.
// Slave stands in for a real serial device, for tests and bench runs.
func OpenPty() (*os.File, string, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	fd := int(master.Fd())
	if err = unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, "", errors.Annotate(err, "unlockpt")
	}
	n, err := unix.IoctlGetUint32(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, "", errors.Annotate(err, "ptsname")
	}
	return master, "/dev/pts/" + strconv.FormatUint(uint64(n), 10), nil
}
