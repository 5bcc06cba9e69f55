//go:build !linux

package serial

import "github.com/juju/errors"

func openFile(c Config) (Link, error) {
	return nil, errors.NotSupportedf("serial driver=%s on this platform", DriverFile)
}
