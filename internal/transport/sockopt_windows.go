//go:build windows

package transport

import "golang.org/x/sys/windows"

func setBroadcast(fd uintptr, on bool) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, boolInt(on))
}

func getBroadcast(fd uintptr) (bool, error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST)
	return v != 0, err
}
