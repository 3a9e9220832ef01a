package config

import (
	"fmt"
	"net"
	"sort"
	"strconv"
)

func (source SourceSpec) LevelName() string { return source.Level }

func (sink SinkSpec) LevelName() string { return sink.Level }

// Effective sink list. A present list form wins over the single form, even when empty.
func (source SourceSpec) AllSinks() (sinks []SinkSpec) {
	if source.Sinks != nil {
		sinks = append(sinks, source.Sinks...)
		return
	}
	if source.Sink != nil {
		sinks = append(sinks, *source.Sink)
	}
	return
}

// True when a single-form sink is present but shadowed by the list form
func (source SourceSpec) SinkShadowed() bool {
	return source.Sinks != nil && source.Sink != nil
}

// Remote endpoint as host:port
func (source SourceSpec) Endpoint() string {
	return net.JoinHostPort(source.Server, strconv.Itoa(source.Port))
}

// Listen address for socket channels
func (channel ChannelSpec) ListenAddr() string {
	return net.JoinHostPort(channel.Address, strconv.Itoa(channel.Port))
}

// Human readable identity of the channel
func (channel ChannelSpec) String() string {
	switch channel.Type {
	case ChannelSocket:
		return fmt.Sprintf("%s:%d", ChannelSocket, channel.Port)
	case ChannelTail:
		return fmt.Sprintf("%s:%s", ChannelTail, channel.File)
	}
	return channel.Type
}

// Source names in stable order
func (cfg File) SourceNames() (names []string) {
	names = make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Verbosity requested by the file, if any
func (cfg File) LogLevel() (level int, set bool) {
	if cfg.Logging.Level == nil {
		return
	}
	level, set = *cfg.Logging.Level, true
	return
}
