package access

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Address is an IPv4 address held in network byte order.
type Address uint32

// LoopbackAddress is the only address treated as the local host.
const LoopbackAddress Address = 127<<24 | 1

// ParseAddress accepts a dotted-quad IPv4 address. IPv4-mapped IPv6 forms
// such as "::ffff:10.0.0.1" are unmapped first; any other IPv6 address is
// rejected.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	addr, err := netip.ParseAddr(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse address %q: %w", raw, err)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, fmt.Errorf("parse address %q: not an IPv4 address", raw)
	}
	if addr.Zone() != "" {
		return 0, fmt.Errorf("parse address %q: zone not allowed", raw)
	}

	b := addr.As4()
	return Address(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}

func (a Address) String() string {
	return netip.AddrFrom4([4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}).String()
}

// RemoteHost strips the port from an http.Request RemoteAddr value. Values
// without a port are returned unchanged.
func RemoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.Trim(remoteAddr, "[]")
	}
	return host
}
