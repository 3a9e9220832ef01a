package network

import (
	"fmt"
	"net"
)

const (
	defaultMTU    int = 1500
	ip4Overhead   int = 60
	ip6Overhead   int = 80
	udpOverhead   int = 8
	maxUDPPayload int = 65507
)

// Determines the largest datagram payload that fits the MTU of the interface a connected UDP socket sends through
func MaxUDPPayload(conn *net.UDPConn) (maxPayloadSize int) {
	mtu := defaultMTU

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if ok {
		iface, err := interfaceForIP(local.IP)
		if err == nil && iface.MTU > 0 {
			mtu = iface.MTU
		}
	}

	overhead := ip4Overhead + udpOverhead
	remote, ok := conn.RemoteAddr().(*net.UDPAddr)
	if ok && remote.IP.To4() == nil {
		overhead = ip6Overhead + udpOverhead
	}

	maxPayloadSize = mtu - overhead
	if maxPayloadSize > maxUDPPayload {
		maxPayloadSize = maxUDPPayload
	}
	return
}

// Retrieves the network interface holding a specific address
func interfaceForIP(ip net.IP) (iface *net.Interface, err error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for index := range ifaces {
		addrs, addrErr := ifaces[index].Addrs()
		if addrErr != nil {
			continue
		}

		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if ok && ipNet.IP.Equal(ip) {
				iface = &ifaces[index]
				return
			}
		}
	}

	err = fmt.Errorf("no matching interface found for address %v", ip)
	return
}
