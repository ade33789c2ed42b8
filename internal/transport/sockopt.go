package transport

import (
	"os"
	"syscall"
)

// SetBroadcast sets SO_BROADCAST on a datagram socket.
func SetBroadcast(c syscall.Conn, on bool) error {
	rc, err := c.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = setBroadcast(fd, on)
	}); err != nil {
		return err
	}
	if opErr != nil {
		return os.NewSyscallError("setsockopt", opErr)
	}
	return nil
}

// Broadcast reads SO_BROADCAST back from the OS.
func Broadcast(c syscall.Conn) (bool, error) {
	rc, err := c.SyscallConn()
	if err != nil {
		return false, err
	}
	var (
		on    bool
		opErr error
	)
	if err := rc.Control(func(fd uintptr) {
		on, opErr = getBroadcast(fd)
	}); err != nil {
		return false, err
	}
	if opErr != nil {
		return false, os.NewSyscallError("getsockopt", opErr)
	}
	return on, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
