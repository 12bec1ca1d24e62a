//go:build !unix

package server

import (
	"log"
	"net"

	"komorebi/internal/config"
)

// listenConfig はソケットオプションを設定したListenConfigを返す
func listenConfig(cfg config.ServerConfig) *net.ListenConfig {
	if cfg.ReusePort {
		log.Println("このプラットフォームでは reuse_port は無視されます")
	}
	return &net.ListenConfig{}
}
