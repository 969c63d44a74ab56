package access

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultKey is the configuration key holding the comma-separated entries.
const DefaultKey = "allowed"

// Allowlist is an immutable set of literal addresses and CIDR ranges. It is
// safe to share between goroutines.
type Allowlist struct {
	literals map[Address]struct{}
	cidrs    []CIDR
}

// NewAllowlist builds an allowlist from already validated values.
func NewAllowlist(literals []Address, cidrs []CIDR) *Allowlist {
	list := &Allowlist{
		literals: make(map[Address]struct{}, len(literals)),
		cidrs:    make([]CIDR, 0, len(cidrs)),
	}
	for _, addr := range literals {
		list.literals[addr] = struct{}{}
	}

	seen := make(map[CIDR]struct{}, len(cidrs))
	for _, c := range cidrs {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		list.cidrs = append(list.cidrs, c)
	}
	return list
}

// Load reads the allowlist from an INI file such as:
//
//	; backup server access
//	[hosts]
//	allowed = "127.0.0.1,203.0.113.7,198.51.100.0/24" ; office
func Load(path, key string) (*Allowlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	defer f.Close()

	list, err := Parse(f, key)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
		}
		return nil, err
	}
	return list, nil
}

// Parse reads the allowlist from INI content. Sections are flattened, so the
// key may sit in any section; when it appears more than once the last one
// wins. Every entry must parse; a single malformed entry fails the whole load.
func Parse(r io.Reader, key string) (*Allowlist, error) {
	if key == "" {
		key = DefaultKey
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read config: %w", err)}
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("parse config: %w", err)}
	}

	var (
		raw   string
		found bool
	)
	for _, section := range cfg.Sections() {
		if section.HasKey(key) {
			raw = section.Key(key).String()
			found = true
		}
	}
	if !found {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %q", ErrKeyMissing, key)}
	}

	return ParseEntries(strings.Split(raw, ","))
}

// ParseEntries classifies each entry as a CIDR range when it contains a
// slash and as a literal address otherwise. Blank entries are skipped.
func ParseEntries(entries []string) (*Allowlist, error) {
	var (
		literals []Address
		cidrs    []CIDR
	)

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			c, err := ParseCIDR(entry)
			if err != nil {
				return nil, &ConfigError{Err: fmt.Errorf("%w: %v", ErrMalformedEntry, err)}
			}
			cidrs = append(cidrs, c)
			continue
		}

		addr, err := ParseAddress(entry)
		if err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("%w: %v", ErrMalformedEntry, err)}
		}
		literals = append(literals, addr)
	}

	return NewAllowlist(literals, cidrs), nil
}

// ContainsAddress reports whether addr is one of the literal entries.
func (l *Allowlist) ContainsAddress(addr Address) bool {
	if l == nil {
		return false
	}
	_, ok := l.literals[addr]
	return ok
}

// MatchesCIDR reports whether any configured range contains addr. An empty
// range list matches nothing.
func (l *Allowlist) MatchesCIDR(addr Address) bool {
	if l == nil {
		return false
	}
	for _, c := range l.cidrs {
		if c.Contains(addr) {
			return true
		}
	}
	return false
}

// CIDRs returns a copy of the configured ranges.
func (l *Allowlist) CIDRs() []CIDR {
	if l == nil {
		return nil
	}
	return append([]CIDR(nil), l.cidrs...)
}

// Len returns the number of literal addresses and ranges.
func (l *Allowlist) Len() (literals, cidrs int) {
	if l == nil {
		return 0, 0
	}
	return len(l.literals), len(l.cidrs)
}
