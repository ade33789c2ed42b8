//go:build !windows

package errors

import "syscall"

// closedErrnos are the socket errors meaning the other end is gone.
var closedErrnos = []error{
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.EPIPE,
}
