//go:build windows

package errors

import "golang.org/x/sys/windows"

// closedErrnos are the socket errors meaning the other end is gone.
// Winsock reports WSA* codes, not the syscall package's invented
// ECONNRESET values.
var closedErrnos = []error{
	windows.WSAECONNRESET,
	windows.WSAECONNABORTED,
	windows.ERROR_BROKEN_PIPE,
}
