package access

import (
	"fmt"
	"strconv"
	"strings"
)

// CIDR is an IPv4 range given as a base address and prefix length. Base is
// kept as configured; it does not have to be aligned to the prefix.
type CIDR struct {
	Base Address
	Bits int
}

// ParseCIDR splits "a.b.c.d/n" into a CIDR. The prefix must be a decimal
// integer between 0 and 32.
func ParseCIDR(raw string) (CIDR, error) {
	base, bits, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return CIDR{}, fmt.Errorf("parse cidr %q: missing prefix length", raw)
	}
	if strings.Contains(bits, "/") {
		return CIDR{}, fmt.Errorf("parse cidr %q: too many separators", raw)
	}

	addr, err := ParseAddress(base)
	if err != nil {
		return CIDR{}, fmt.Errorf("parse cidr %q: %w", raw, err)
	}

	if bits == "" || strings.TrimLeft(bits, "0123456789") != "" {
		return CIDR{}, fmt.Errorf("parse cidr %q: prefix length must be a decimal integer", raw)
	}
	n, err := strconv.Atoi(bits)
	if err != nil || n < 0 || n > 32 {
		return CIDR{}, fmt.Errorf("parse cidr %q: prefix length must be between 0 and 32", raw)
	}

	return CIDR{Base: addr, Bits: n}, nil
}

// Mask returns the network mask for the prefix length. A /0 range has an
// all-zero mask and a /32 range an all-ones mask.
func (c CIDR) Mask() uint32 {
	return uint32(uint64(0xFFFFFFFF) << uint(32-c.Bits))
}

// Subnet is the base address aligned to the mask.
func (c CIDR) Subnet() Address {
	return Address(uint32(c.Base) & c.Mask())
}

// Contains reports whether addr falls inside the aligned subnet.
func (c CIDR) Contains(addr Address) bool {
	return Address(uint32(addr)&c.Mask()) == c.Subnet()
}

func (c CIDR) String() string {
	return c.Base.String() + "/" + strconv.Itoa(c.Bits)
}
