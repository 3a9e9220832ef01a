package client

import (
	"fmt"
	"pipesyslog/internal/syslog"
	"strings"
	"time"
)

const rfc5424Time string = "2006-01-02T15:04:05.000000Z07:00"

// <PRI>Mmm dd hh:mm:ss HOST TAG[PID]: MSG
func formatRFC3164(id identity, line string, severity syslog.Severity, now time.Time) (msg []byte) {
	priority := syslog.Priority(id.facility, severity)
	msg = fmt.Appendf(nil, "<%d>%s %s %s[%d]: %s",
		priority, now.Format(time.Stamp), headerField(id.hostname), headerField(id.tag), id.pid, line)
	return
}

// <PRI>1 TIMESTAMP HOST APP PROCID MSGID SD MSG
func formatRFC5424(id identity, line string, severity syslog.Severity, now time.Time) (msg []byte) {
	priority := syslog.Priority(id.facility, severity)
	msg = fmt.Appendf(nil, "<%d>1 %s %s %s %d - - %s",
		priority, now.Format(rfc5424Time), headerField(id.hostname), headerField(id.tag), id.pid, line)
	return
}

// Header fields are space delimited and may not be empty
func headerField(value string) (field string) {
	field = strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, value)
	if field == "" {
		field = "-"
	}
	return
}
