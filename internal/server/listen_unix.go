//go:build unix

package server

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"komorebi/internal/config"
)

// listenConfig はソケットオプションを設定したListenConfigを返す
func listenConfig(cfg config.ServerConfig) *net.ListenConfig {
	lc := &net.ListenConfig{}
	if !cfg.ReusePort {
		return lc
	}

	lc.Control = func(_, _ string, c syscall.RawConn) error {
		var opErr error
		if err := c.Control(func(fd uintptr) {
			opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}); err != nil {
			return err
		}
		return opErr
	}
	return lc
}
