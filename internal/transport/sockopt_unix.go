//go:build unix

package transport

import "golang.org/x/sys/unix"

func setBroadcast(fd uintptr, on bool) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, boolInt(on))
}

func getBroadcast(fd uintptr) (bool, error) {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST)
	return v != 0, err
}
