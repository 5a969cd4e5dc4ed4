package monitoring

import (
	"errors"
	"strconv"

	"golang.org/x/sys/unix"
)

// Errno returns the symbolic errno name for err, or "" when err is nil.
func Errno(err error) string {
	if err == nil {
		return ""
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		if name := unix.ErrnoName(errno); name != "" {
			return name
		}
		return "errno_" + strconv.Itoa(int(errno))
	}
	return "other"
}
