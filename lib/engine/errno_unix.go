//go:build unix

package engine

import "golang.org/x/sys/unix"

// Status codes used by engines, taken from the platform's errno values.
const (
	EPERM  = int(unix.EPERM)
	ENOENT = int(unix.ENOENT)
	EAGAIN = int(unix.EAGAIN)
	ENOMEM = int(unix.ENOMEM)
	EFAULT = int(unix.EFAULT)
	EINVAL = int(unix.EINVAL)
)
