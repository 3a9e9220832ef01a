package channel

import (
	"fmt"
	"net"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
)

// Resolves the configured channel variant once
func New(spec config.ChannelSpec, opts Options) (channel Channel, err error) {
	opts.setDefaults()

	switch spec.Type {
	case config.ChannelSocket:
		channel = &Socket{
			addr:        spec.ListenAddr(),
			port:        spec.Port,
			maxLineSize: opts.MaxLineSize,
			conns:       make(map[net.Conn]struct{}),
		}
	case config.ChannelTail:
		channel = &Tail{
			file:         spec.File,
			command:      opts.TailCommand,
			startupCheck: opts.StartupCheck,
			exited:       make(chan struct{}),
		}
	default:
		err = fmt.Errorf("unknown channel type '%s'", spec.Type)
	}
	return
}

func (opts *Options) setDefaults() {
	if opts.TailCommand == "" {
		opts.TailCommand = global.DefaultTailCommand
	}
	if opts.MaxLineSize <= 0 {
		opts.MaxLineSize = global.DefaultMaxLineSize
	}
	if opts.StartupCheck <= 0 {
		opts.StartupCheck = global.TailStartupCheckDelay
	}
}
