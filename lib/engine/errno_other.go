//go:build !unix

package engine

// Status codes used by engines. These match the C runtime's errno values on
// platforms without a unix errno table (jemalloc uses the CRT values there).
const (
	EPERM  = 1
	ENOENT = 2
	EAGAIN = 11
	ENOMEM = 12
	EFAULT = 14
	EINVAL = 22
)
