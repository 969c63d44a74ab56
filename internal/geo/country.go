package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

const unknownCountry = "N/A"

// Resolver maps addresses to ISO country codes using a GeoLite2 Country
// database. A nil Resolver answers N/A for everything.
type Resolver struct {
	db *geoip2.Reader
}

func Open(path string) (*Resolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geo: open %s: %w", path, err)
	}
	return &Resolver{db: db}, nil
}

func (r *Resolver) CountryCode(ipAddress string) string {
	if r == nil || r.db == nil {
		return unknownCountry
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return unknownCountry
	}

	record, err := r.db.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return unknownCountry
	}
	return record.Country.IsoCode
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
