package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion  string = "v1.2.0"
	ProgBaseName string = "pipesyslog"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultBinaryPath  string = "/usr/local/bin/pipesyslog"
	DefaultConfigPath  string = "/etc/pipesyslog.json"
	DefaultUnitPath    string = "/etc/systemd/system/pipesyslog.service"
	DefaultTailCommand string = "tail"

	// Source defaults
	DefaultSeverity  string = "info"
	DefaultFacility  string = "user"
	DefaultProtocol  string = "syslog"
	DefaultTransport string = "udp"
	DefaultFormat    string = "rfc3164"

	// Channel limits
	DefaultMaxLineSize    int           = 1024 * 1024
	TailStartupCheckDelay time.Duration = 25 * time.Millisecond

	// Client limits
	ClientDialTimeout  time.Duration = 3 * time.Second
	ClientWriteTimeout time.Duration = 2 * time.Second

	// Privileges are dropped this long after the first setup completes
	PrivilegeDropDelay time.Duration = 5 * time.Second

	// Metric HTTP server
	HTTPListenAddr   string        = "localhost:9514" // Metric queries only exposed to local machine
	HTTPMetricsPath  string        = "/metrics"
	HTTPReadTimeout  time.Duration = 30 * time.Second
	HTTPWriteTimeout time.Duration = 10 * time.Second
	HTTPIdleTimeout  time.Duration = 180 * time.Second

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSForwarder string = "Forwarder"
	NSSource    string = "Source"
	NSSink      string = "Sink"
	NSClient    string = "Client"
	NSSignal    string = "Signals"
	NSPrivilege string = "Privileges"
)
