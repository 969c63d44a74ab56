package access

import "github.com/charmbracelet/log"

// HostSet is the secondary list of explicitly allowed hosts. It is empty
// unless something populates it at runtime.
type HostSet interface {
	Contains(addr Address) bool
}

// StaticHosts is an immutable HostSet.
type StaticHosts struct {
	set map[Address]struct{}
}

// NewStaticHosts builds a host set from the given addresses.
func NewStaticHosts(addrs ...Address) *StaticHosts {
	set := make(map[Address]struct{}, len(addrs))
	for _, addr := range addrs {
		set[addr] = struct{}{}
	}
	return &StaticHosts{set: set}
}

// ParseStaticHosts builds a host set from textual addresses, skipping and
// logging any that do not parse.
func ParseStaticHosts(entries []string) *StaticHosts {
	addrs := make([]Address, 0, len(entries))
	for _, entry := range entries {
		addr, err := ParseAddress(entry)
		if err != nil {
			log.Warn("Ignoring invalid allowed host", "entry", entry, "error", err)
			continue
		}
		addrs = append(addrs, addr)
	}
	return NewStaticHosts(addrs...)
}

func (h *StaticHosts) Contains(addr Address) bool {
	if h == nil {
		return false
	}
	_, ok := h.set[addr]
	return ok
}

func (h *StaticHosts) Len() int {
	if h == nil {
		return 0
	}
	return len(h.set)
}
