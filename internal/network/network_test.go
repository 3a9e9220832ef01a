package network

import (
	"context"
	"net"
	"testing"
)

func TestListenTCP_RebindAfterClose(t *testing.T) {
	first, err := ListenTCP(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := first.Addr().String()

	// Leave a connection behind so the port has TIME_WAIT state after close
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	accepted, err := first.Accept()
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	accepted.Close()
	conn.Close()
	first.Close()

	second, err := ListenTCP(context.Background(), addr)
	if err != nil {
		t.Fatalf("expected rebind of %s to succeed: %v", addr, err)
	}
	second.Close()
}

func TestListenTCP_PortInUse(t *testing.T) {
	first, err := ListenTCP(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer first.Close()

	_, err = ListenTCP(context.Background(), first.Addr().String())
	if err == nil {
		t.Fatalf("expected error when port is actively held")
	}
}

func TestMaxUDPPayload_Loopback(t *testing.T) {
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:9")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	size := MaxUDPPayload(conn)
	if size < defaultMTU-ip4Overhead-udpOverhead {
		t.Fatalf("payload size %d smaller than ethernet default", size)
	}
	if size > maxUDPPayload {
		t.Fatalf("payload size %d exceeds UDP maximum", size)
	}
}
