// Severity levels and the sink -> source -> default resolution chain
package syslog

// Syslog severity, lower value is more urgent
type Severity uint8

const (
	Emergency Severity = iota
	Alert
	Critical
	Error
	Warn
	Notice
	Info
	Debug
)

const DefaultLevel = Info

// Configuration level names, matched exactly
var levelNames = [...]string{
	Emergency: "emergency",
	Alert:     "alert",
	Critical:  "critical",
	Error:     "error",
	Warn:      "warn",
	Notice:    "notice",
	Info:      "info",
	Debug:     "debug",
}

// Anything carrying an optional level name (source and sink specs)
type Leveled interface {
	LevelName() string
}

// Resolves the severity used for lines of one sink.
// Sink level wins over source level which wins over info. Empty means unset.
func Resolve(source Leveled, sink Leveled) (severity Severity) {
	level := ""
	if sink != nil {
		level = sink.LevelName()
	}
	if level == "" && source != nil {
		level = source.LevelName()
	}
	severity = ParseLevel(level)
	return
}

// Maps a configuration level name to a severity. Unknown names are info.
func ParseLevel(name string) (severity Severity) {
	for code, levelName := range levelNames {
		if levelName == name {
			severity = Severity(code)
			return
		}
	}
	severity = DefaultLevel
	return
}

// Reports whether name is one of the recognized configuration level names
func ValidLevel(name string) (valid bool) {
	for _, levelName := range levelNames {
		if levelName == name {
			valid = true
			return
		}
	}
	return
}

// Configuration level name
func (severity Severity) String() string {
	if int(severity) >= len(levelNames) {
		return levelNames[DefaultLevel]
	}
	return levelNames[severity]
}

// Wire keyword (emerg, crit, err, warning...)
func (severity Severity) Keyword() (keyword string) {
	keyword, err := CodeToKeyword(uint16(severity))
	if err != nil {
		keyword = "info"
	}
	return
}

// PRI value for the syslog header
func Priority(facility uint16, severity Severity) (priority int) {
	priority = int(facility)*8 + int(severity)
	return
}
