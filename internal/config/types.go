package config

// Channel variants
const (
	ChannelSocket string = "socket"
	ChannelTail   string = "tail"
)

// Client protocols
const (
	ProtocolSyslog string = "syslog"
	ProtocolBeats  string = "beats"
)

// Client transports
const (
	TransportUDP string = "udp"
	TransportTCP string = "tcp"
)

// Syslog header formats
const (
	FormatRFC3164 string = "rfc3164"
	FormatRFC5424 string = "rfc5424"
)

// Re-reads the configuration from its backing store on every call
type Loader func() (cfg File, err error)

// Whole configuration file
type File struct {
	Sources map[string]SourceSpec `json:"sources" yaml:"sources"`
	Tail    TailConf              `json:"tail,omitempty" yaml:"tail,omitempty"`
	Metrics MetricConf            `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Logging Logging               `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// One named log source: a remote endpoint plus the channels feeding it
type SourceSpec struct {
	Server    string     `json:"server" yaml:"server"`
	Port      int        `json:"port" yaml:"port"`
	Hostname  string     `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Level     string     `json:"level,omitempty" yaml:"level,omitempty"`
	Protocol  string     `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Transport string     `json:"transport,omitempty" yaml:"transport,omitempty"`
	Format    string     `json:"format,omitempty" yaml:"format,omitempty"`
	Facility  string     `json:"facility,omitempty" yaml:"facility,omitempty"`
	Tag       string     `json:"tag,omitempty" yaml:"tag,omitempty"`
	Sinks     []SinkSpec `json:"sinks,omitempty" yaml:"sinks,omitempty"`
	Sink      *SinkSpec  `json:"sink,omitempty" yaml:"sink,omitempty"`
}

type SinkSpec struct {
	Channel ChannelSpec `json:"channel" yaml:"channel"`
	Level   string      `json:"level,omitempty" yaml:"level,omitempty"`
}

// Tagged variant: socket uses Port (and optional Address), tail uses File
type ChannelSpec struct {
	Type    string `json:"type" yaml:"type"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
}

type TailConf struct {
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

type MetricConf struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Level is a pointer so an explicit 0 (quiet) is distinct from unset
type Logging struct {
	Level *int `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}
