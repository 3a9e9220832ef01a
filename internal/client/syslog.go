package client

import (
	"fmt"
	"net"
	"pipesyslog/internal/config"
	"pipesyslog/internal/global"
	"pipesyslog/internal/network"
	"pipesyslog/internal/syslog"
	"sync"
	"time"
)

// Syslog sender over UDP datagrams or newline framed TCP
type syslogClient struct {
	identity
	endpoint  string
	transport string
	format    string

	mu         sync.Mutex
	conn       net.Conn
	maxPayload int // UDP only
	closed     bool
}

func newSyslogClient(spec config.SourceSpec, id identity) (client *syslogClient, dialErr error, err error) {
	transport := spec.Transport
	if transport == "" {
		transport = global.DefaultTransport
	}
	if transport != config.TransportUDP && transport != config.TransportTCP {
		err = fmt.Errorf("unknown transport '%s'", transport)
		return
	}

	format := spec.Format
	if format == "" {
		format = global.DefaultFormat
	}
	if format != config.FormatRFC3164 && format != config.FormatRFC5424 {
		err = fmt.Errorf("unknown format '%s'", format)
		return
	}

	client = &syslogClient{
		identity:  id,
		endpoint:  spec.Endpoint(),
		transport: transport,
		format:    format,
	}

	client.mu.Lock()
	dialErr = client.connect()
	client.mu.Unlock()
	return
}

func (client *syslogClient) Describe() string {
	return client.transport + "://" + client.endpoint
}

// Must hold mu
func (client *syslogClient) connect() (err error) {
	conn, err := net.DialTimeout(client.transport, client.endpoint, global.ClientDialTimeout)
	if err != nil {
		err = fmt.Errorf("failed to connect to %s: %v", client.Describe(), err)
		return
	}

	if udpConn, ok := conn.(*net.UDPConn); ok {
		client.maxPayload = network.MaxUDPPayload(udpConn)
	}
	client.conn = conn
	return
}

// Sends one line. A failed write drops the line and the connection; the next call reconnects.
func (client *syslogClient) Log(line string, severity syslog.Severity) (err error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.closed {
		err = ErrDisconnected
		return
	}
	if client.conn == nil {
		err = client.connect()
		if err != nil {
			return
		}
	}

	msg := client.encode(line, severity, time.Now())
	if client.transport == config.TransportUDP {
		if client.maxPayload > 0 && len(msg) > client.maxPayload {
			msg = msg[:client.maxPayload]
		}
	} else {
		msg = append(msg, '\n')
	}

	err = client.conn.SetWriteDeadline(time.Now().Add(global.ClientWriteTimeout))
	if err == nil {
		_, err = client.conn.Write(msg)
	}
	if err != nil {
		client.conn.Close()
		client.conn = nil
		err = fmt.Errorf("failed to write to %s: %v", client.Describe(), err)
	}
	return
}

func (client *syslogClient) encode(line string, severity syslog.Severity, now time.Time) (msg []byte) {
	if client.format == config.FormatRFC5424 {
		msg = formatRFC5424(client.identity, line, severity, now)
	} else {
		msg = formatRFC3164(client.identity, line, severity, now)
	}
	return
}

func (client *syslogClient) Disconnect() (err error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.closed = true
	if client.conn != nil {
		err = client.conn.Close()
		client.conn = nil
	}
	return
}
