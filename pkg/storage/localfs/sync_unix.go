//go:build unix

package localfs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// some filesystems (e.g. certain network mounts) refuse fsync on a directory
func isUnsupportedSync(err error) bool {
	return errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EBADF)
}
