package client

import (
	"fmt"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/syslog"
	"sync"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Lumberjack v2 sender. Every line is one synchronously acknowledged event.
type beatsClient struct {
	identity
	endpoint     string
	facilityName string

	mu     sync.Mutex
	sink   *lumberjack.SyncClient
	closed bool
}

func newBeatsClient(spec config.SourceSpec, id identity) (client *beatsClient, dialErr error) {
	facilityName, err := syslog.CodeToFacility(id.facility)
	if err != nil {
		facilityName = global.DefaultFacility
	}

	client = &beatsClient{
		identity:     id,
		endpoint:     spec.Endpoint(),
		facilityName: facilityName,
	}

	client.mu.Lock()
	dialErr = client.connect()
	client.mu.Unlock()
	return
}

func (client *beatsClient) Describe() string {
	return "beats://" + client.endpoint
}

// Must hold mu
func (client *beatsClient) connect() (err error) {
	compression := lumberjack.CompressionLevel(0)
	timeout := lumberjack.Timeout(global.ClientWriteTimeout)

	ljClient, err := lumberjack.SyncDial(client.endpoint, compression, timeout)
	if err != nil {
		err = fmt.Errorf("failed connection to beats server: %w", err)
		return
	}
	client.sink = ljClient
	return
}

func (client *beatsClient) Log(line string, severity syslog.Severity) (err error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.closed {
		err = ErrDisconnected
		return
	}
	if client.sink == nil {
		err = client.connect()
		if err != nil {
			return
		}
	}

	events := []interface{}{client.event(line, severity, time.Now())}

	_, err = client.sink.Send(events)
	if err != nil {
		client.sink.Close()
		client.sink = nil
		err = fmt.Errorf("failed to send event to %s: %v", client.Describe(), err)
	}
	return
}

// Event layout understood by beats/logstash syslog pipelines
func (client *beatsClient) event(line string, severity syslog.Severity, now time.Time) (fields map[string]interface{}) {
	fields = map[string]interface{}{
		// Minimum required fields
		"@timestamp": now,
		"message":    line,

		// Common fields
		"host": map[string]interface{}{
			"name":     client.hostname,
			"hostname": client.hostname,
		},
		"agent": map[string]interface{}{
			"name": client.hostname,
			// Meta fields identifying the forwarding daemon itself
			"program": global.ProgBaseName,
			"version": global.ProgVersion,
			"type":    "filebeat",
			"pid":     client.pid,
		},

		// Syslog compat fields
		"log": map[string]interface{}{
			"syslog": map[string]interface{}{
				"appname": client.tag,
				"facility": map[string]interface{}{
					"code": client.facility,
					"name": client.facilityName,
				},
				"priority":      syslog.Priority(client.facility, severity),
				"priority-name": severity.Keyword(),
				"severity": map[string]interface{}{
					"code": uint8(severity),
					"name": severity.String(),
				},
			},
		},
	}
	return
}

func (client *beatsClient) Disconnect() (err error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.closed = true
	if client.sink != nil {
		err = client.sink.Close()
		client.sink = nil
	}
	return
}
