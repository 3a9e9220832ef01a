package source

import (
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
)

// Ships one line at the sink severity. Failures drop the line; there is no retry or buffering.
func (sink *Sink) Forward(line string) {
	sink.metrics.LineReceived(sink.source, sink.id)

	logctx.LogEvent(sink.ctx, global.VerbosityFullData, global.InfoLog,
		"Forwarding line (%s): %s\n", sink.severity, line)

	err := sink.client.Log(line, sink.severity)
	if err != nil {
		sink.metrics.LineDropped(sink.source, sink.id)
		logctx.LogEvent(sink.ctx, global.VerbosityDebug, global.WarnLog,
			"Dropped line: %v\n", err)
		return
	}
	sink.metrics.LineForwarded(sink.source, sink.id)
}
