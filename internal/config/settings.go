package config

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"nodebackup/internal/access"
	"nodebackup/internal/support"
)

const (
	DefaultPort           = 8080
	DefaultAllowlistFile  = "allowedHosts.ini"
	DefaultStagingDir     = "/tmp"
	DefaultUploadMaxBytes = 500000
	DefaultMaxConnections = 64
	DefaultAstDBURL       = "https://allstarlink.org/cgi-bin/allmondb.pl"
	DefaultAstDBFile      = "astdb.txt"
	DefaultAstDBPrivate   = "privatenodes.txt"

	defaultHostsSyncInterval = 30 * time.Second
)

type Settings struct {
	Port       int
	ListenHost string

	Allowlist struct {
		File      string
		Key       string
		IndexName string
	}

	Backup struct {
		StagingDir     string
		UploadMaxBytes int64
	}

	MaxConnections int

	RedisURL                 string
	AllowedHostsSyncInterval time.Duration

	GeoLiteCountryDB string

	AstDB struct {
		URL             string
		File            string
		PrivateFile     string
		RefreshInterval time.Duration
	}

	LogLevel string
}

var settingsValue atomic.Value

func init() {
	settingsValue.Store(Settings{})
}

// FromEnv builds settings from the process environment, falling back to the
// defaults for anything unset or invalid.
func FromEnv() Settings {
	var s Settings

	s.Port = support.GetEnvInt("PORT", DefaultPort)
	s.ListenHost = support.GetEnv("LISTEN_HOST", "")

	s.Allowlist.File = support.GetEnv("ALLOWLIST_FILE", DefaultAllowlistFile)
	s.Allowlist.Key = support.GetEnv("ALLOWLIST_KEY", access.DefaultKey)
	s.Allowlist.IndexName = support.GetEnv("DIRECTORY_INDEX", access.DefaultIndexName)

	s.Backup.StagingDir = support.GetEnv("STAGING_DIR", DefaultStagingDir)
	s.Backup.UploadMaxBytes = int64(support.GetEnvInt("UPLOAD_MAX_BYTES", DefaultUploadMaxBytes))

	s.MaxConnections = support.GetEnvInt("MAX_CONNECTIONS", DefaultMaxConnections)

	s.RedisURL = support.GetEnv("REDIS_URL", "")
	s.AllowedHostsSyncInterval = support.GetEnvDuration("ALLOWED_HOSTS_SYNC_INTERVAL", defaultHostsSyncInterval)

	s.GeoLiteCountryDB = support.GetEnv("GEOLITE_COUNTRY_DB", "")

	s.AstDB.URL = support.GetEnv("ASTDB_URL", DefaultAstDBURL)
	s.AstDB.File = support.GetEnv("ASTDB_FILE", DefaultAstDBFile)
	s.AstDB.PrivateFile = support.GetEnv("ASTDB_PRIVATE_FILE", DefaultAstDBPrivate)
	s.AstDB.RefreshInterval = support.GetEnvDuration("ASTDB_REFRESH_INTERVAL", 0)

	s.LogLevel = support.GetEnv("LOG_LEVEL", "info")

	return s.normalize()
}

func (s Settings) normalize() Settings {
	if s.Port <= 0 || s.Port > 65535 {
		log.Warn("invalid port, using default", "port", s.Port, "default", DefaultPort)
		s.Port = DefaultPort
	}
	if s.Backup.UploadMaxBytes <= 0 {
		s.Backup.UploadMaxBytes = DefaultUploadMaxBytes
	}
	if s.MaxConnections <= 0 {
		s.MaxConnections = DefaultMaxConnections
	}
	if s.Allowlist.Key == "" {
		s.Allowlist.Key = access.DefaultKey
	}
	if s.Allowlist.IndexName == "" {
		s.Allowlist.IndexName = access.DefaultIndexName
	}
	if s.AstDB.RefreshInterval < 0 {
		s.AstDB.RefreshInterval = 0
	}
	return s
}

func SetSettings(s Settings) {
	settingsValue.Store(s)
}

func GetSettings() Settings {
	return settingsValue.Load().(Settings)
}
