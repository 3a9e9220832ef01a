// Loading, defaulting and validation of the daemon configuration file (JSON or YAML)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"pipesyslog/internal/global"
	"pipesyslog/internal/syslog"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loads config from file, choosing the decoder by extension
func LoadConfig(path string) (cfg File, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %v", err)
		return
	}

	cfg, err = Parse(configFile, isYAML(path))
	if err != nil {
		err = fmt.Errorf("invalid config in '%s': %v", path, err)
		return
	}
	return
}

// Returns a loader that re-reads path on every call
func FileLoader(path string) Loader {
	return func() (File, error) {
		return LoadConfig(path)
	}
}

// Decodes, fills defaults and validates raw configuration bytes
func Parse(raw []byte, asYAML bool) (cfg File, err error) {
	if asYAML {
		err = yaml.Unmarshal(raw, &cfg)
	} else {
		err = json.Unmarshal(raw, &cfg)
	}
	if err != nil {
		err = fmt.Errorf("invalid config syntax: %v", err)
		return
	}

	cfg.setDefaults()

	err = cfg.Validate()
	return
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Sets defaults for any missing values. Sources are rebuilt so the decoded map is never shared.
func (cfg *File) setDefaults() {
	sources := make(map[string]SourceSpec, len(cfg.Sources))
	for name, source := range cfg.Sources {
		if source.Protocol == "" {
			source.Protocol = global.DefaultProtocol
		}
		if source.Transport == "" {
			if source.Protocol == ProtocolBeats {
				source.Transport = TransportTCP
			} else {
				source.Transport = global.DefaultTransport
			}
		}
		if source.Format == "" {
			source.Format = global.DefaultFormat
		}
		if source.Facility == "" {
			source.Facility = global.DefaultFacility
		}
		if source.Tag == "" {
			source.Tag = name
		}
		// Clone keeps a present but empty list distinct from an absent one
		source.Sinks = slices.Clone(source.Sinks)
		sources[name] = source
	}
	cfg.Sources = sources

	if cfg.Tail.Command == "" {
		cfg.Tail.Command = global.DefaultTailCommand
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = global.HTTPListenAddr
	}
}

// Checks every source and sink. All problems are reported together.
func (cfg File) Validate() (err error) {
	var problems []error

	if len(cfg.Sources) == 0 {
		problems = append(problems, fmt.Errorf("no sources configured"))
	}

	level, set := cfg.LogLevel()
	if set && (level < global.VerbosityNone || level > global.VerbosityDebug) {
		problems = append(problems, fmt.Errorf("logging.logLevel %d out of range %d-%d",
			level, global.VerbosityNone, global.VerbosityDebug))
	}

	socketOwners := make(map[string]string)
	for _, name := range cfg.SourceNames() {
		source := cfg.Sources[name]

		sourceErr := source.validate()
		if sourceErr != nil {
			problems = append(problems, fmt.Errorf("source '%s': %v", name, sourceErr))
		}

		for index, sink := range source.AllSinks() {
			sinkErr := sink.validate()
			if sinkErr != nil {
				problems = append(problems, fmt.Errorf("source '%s' sink %d: %v", name, index, sinkErr))
				continue
			}

			if sink.Channel.Type != ChannelSocket {
				continue
			}
			addr := sink.Channel.ListenAddr()
			owner, taken := socketOwners[addr]
			if taken {
				problems = append(problems, fmt.Errorf("source '%s' sink %d: listen address %s already used by source '%s'",
					name, index, addr, owner))
				continue
			}
			socketOwners[addr] = name
		}
	}

	err = errors.Join(problems...)
	return
}

func (source SourceSpec) validate() (err error) {
	if source.Server == "" {
		err = fmt.Errorf("missing server address")
		return
	}
	if source.Port < 1 || source.Port > 65535 {
		err = fmt.Errorf("invalid server port %d", source.Port)
		return
	}
	switch source.Protocol {
	case ProtocolSyslog:
		if source.Transport != TransportUDP && source.Transport != TransportTCP {
			err = fmt.Errorf("unknown transport '%s'", source.Transport)
			return
		}
	case ProtocolBeats:
		if source.Transport != TransportTCP {
			err = fmt.Errorf("beats protocol requires tcp transport, got '%s'", source.Transport)
			return
		}
	default:
		err = fmt.Errorf("unknown protocol '%s'", source.Protocol)
		return
	}

	if source.Format != FormatRFC3164 && source.Format != FormatRFC5424 {
		err = fmt.Errorf("unknown format '%s'", source.Format)
		return
	}

	_, err = syslog.FacilityToCode(source.Facility)
	if err != nil {
		return
	}

	if len(source.AllSinks()) == 0 {
		if source.SinkShadowed() {
			err = fmt.Errorf("no sinks configured ('sinks' is present but empty, 'sink' is ignored)")
			return
		}
		err = fmt.Errorf("no sinks configured")
		return
	}
	return
}

func (sink SinkSpec) validate() (err error) {
	switch sink.Channel.Type {
	case ChannelSocket:
		if sink.Channel.Port < 1 || sink.Channel.Port > 65535 {
			err = fmt.Errorf("invalid socket channel port %d", sink.Channel.Port)
		}
	case ChannelTail:
		if sink.Channel.File == "" {
			err = fmt.Errorf("tail channel requires a file path")
		}
	default:
		err = fmt.Errorf("unknown channel type '%s'", sink.Channel.Type)
	}
	return
}

// Non-fatal findings: level names that will resolve to info, and shadowed single sinks
func (cfg File) Warnings() (warnings []string) {
	for _, name := range cfg.SourceNames() {
		source := cfg.Sources[name]
		if source.Level != "" && !syslog.ValidLevel(source.Level) {
			warnings = append(warnings, fmt.Sprintf("source '%s': unknown level '%s' resolves to %s",
				name, source.Level, syslog.DefaultLevel))
		}
		if source.SinkShadowed() {
			warnings = append(warnings, fmt.Sprintf("source '%s': both 'sinks' and 'sink' present, ignoring 'sink'", name))
		}
		for index, sink := range source.AllSinks() {
			if sink.Level != "" && !syslog.ValidLevel(sink.Level) {
				warnings = append(warnings, fmt.Sprintf("source '%s' sink %d: unknown level '%s' resolves to %s",
					name, index, sink.Level, syslog.DefaultLevel))
			}
		}
	}
	return
}
