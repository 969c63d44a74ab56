package access

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

var emptyAllowlist = NewAllowlist(nil, nil)

// Store holds the allowlist currently in effect. Readers always see a
// complete list; reloads replace it in one step.
type Store struct {
	current atomic.Pointer[Allowlist]
	reloads singleflight.Group
}

// NewStore returns a store serving list. A nil list denies everything that
// is not loopback.
func NewStore(list *Allowlist) *Store {
	s := &Store{}
	s.Swap(list)
	return s
}

// Load returns the current allowlist. It never returns nil.
func (s *Store) Load() *Allowlist {
	if list := s.current.Load(); list != nil {
		return list
	}
	return emptyAllowlist
}

// Swap installs list and returns the previous one.
func (s *Store) Swap(list *Allowlist) *Allowlist {
	if list == nil {
		list = emptyAllowlist
	}
	return s.current.Swap(list)
}

// Reload loads the allowlist from path and installs it. When loading fails
// the previous allowlist stays in effect and the error is returned.
// Concurrent reloads share a single load.
func (s *Store) Reload(path, key string) error {
	_, err, _ := s.reloads.Do(path+"\x00"+key, func() (interface{}, error) {
		list, err := Load(path, key)
		if err != nil {
			return nil, err
		}
		s.Swap(list)

		literals, cidrs := list.Len()
		log.Info("Allowlist reloaded", "source", path, "addresses", literals, "ranges", cidrs)
		log.Debug("Allowlist ranges in effect", "cidrs", list.CIDRs())
		return nil, nil
	})
	return err
}
