package client

import (
	"context"
	"fmt"
	"os"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"pipesyslog/internal/syslog"
)

// Builds the client for a source. Hostname is used when the spec carries no override.
// Connection failures at this point are logged and retried on the next Log call;
// only unusable settings return an error.
func Dial(ctx context.Context, spec config.SourceSpec, hostname string) (client Client, err error) {
	if spec.Hostname != "" {
		hostname = spec.Hostname
	}

	facilityName := spec.Facility
	if facilityName == "" {
		facilityName = global.DefaultFacility
	}
	facility, err := syslog.FacilityToCode(facilityName)
	if err != nil {
		return
	}

	id := identity{
		hostname: hostname,
		tag:      spec.Tag,
		facility: facility,
		pid:      global.PID,
	}
	if id.pid == 0 {
		id.pid = os.Getpid()
	}

	protocol := spec.Protocol
	if protocol == "" {
		protocol = global.DefaultProtocol
	}

	var dialErr error
	switch protocol {
	case config.ProtocolSyslog:
		client, dialErr, err = newSyslogClient(spec, id)
	case config.ProtocolBeats:
		client, dialErr = newBeatsClient(spec, id)
	default:
		err = fmt.Errorf("unknown protocol '%s'", protocol)
	}
	if err != nil {
		return
	}
	if dialErr != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"%s endpoint %s not reachable yet, will retry on next line: %v\n", protocol, client.Describe(), dialErr)
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Created %s client for %s\n", protocol, client.Describe())
	return
}
