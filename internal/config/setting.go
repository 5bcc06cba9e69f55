package config

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/juju/errors"
)

// ReadSetting returns first line of a single-line setting file,
// trailing whitespace stripped. Missing or empty file is an error.
func ReadSetting(fs FullReader, name string) (string, error) {
	path := fs.Normalize(name)
	b, err := fs.ReadAll(path)
	if err != nil {
		return "", errors.Annotatef(err, "setting name=%s", name)
	}
	if b == nil {
		return "", errors.NotFoundf("setting name=%s path=%s", name, path)
	}
	line, err := bufio.NewReader(bytes.NewReader(b)).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.NotValidf("setting name=%s path=%s empty", name, path)
	}
	line = strings.TrimRight(line, " \t\r\n")
	if line == "" {
		return "", errors.NotValidf("setting name=%s path=%s empty", name, path)
	}
	return line, nil
}
