package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "0")
	t.Setenv("UPLOAD_MAX_BYTES", "-1")
	t.Setenv("ALLOWLIST_FILE", DefaultAllowlistFile)
	t.Setenv("STAGING_DIR", DefaultStagingDir)
	t.Setenv("REDIS_URL", "")
	t.Setenv("ASTDB_REFRESH_INTERVAL", "")

	s := FromEnv()
	if s.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d", s.Port, DefaultPort)
	}
	if s.Backup.UploadMaxBytes != DefaultUploadMaxBytes {
		t.Fatalf("UploadMaxBytes = %d, want %d", s.Backup.UploadMaxBytes, DefaultUploadMaxBytes)
	}
	if s.Allowlist.File != DefaultAllowlistFile || s.Backup.StagingDir != DefaultStagingDir {
		t.Fatalf("unexpected paths: %q %q", s.Allowlist.File, s.Backup.StagingDir)
	}
	if s.RedisURL != "" {
		t.Fatalf("RedisURL = %q, want empty", s.RedisURL)
	}
	if s.AstDB.RefreshInterval != 0 {
		t.Fatalf("RefreshInterval = %s, want 0", s.AstDB.RefreshInterval)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWLIST_FILE", "/etc/nodebackup/hosts.ini")
	t.Setenv("ALLOWLIST_KEY", "hosts")
	t.Setenv("STAGING_DIR", "/var/lib/nodebackup")
	t.Setenv("UPLOAD_MAX_BYTES", "1000")
	t.Setenv("ASTDB_REFRESH_INTERVAL", "6h")
	t.Setenv("ALLOWED_HOSTS_SYNC_INTERVAL", "10")

	s := FromEnv()
	if s.Port != 9090 {
		t.Fatalf("Port = %d, want 9090", s.Port)
	}
	if s.Allowlist.File != "/etc/nodebackup/hosts.ini" || s.Allowlist.Key != "hosts" {
		t.Fatalf("unexpected allowlist settings: %+v", s.Allowlist)
	}
	if s.Backup.StagingDir != "/var/lib/nodebackup" || s.Backup.UploadMaxBytes != 1000 {
		t.Fatalf("unexpected backup settings: %+v", s.Backup)
	}
	if s.AstDB.RefreshInterval != 6*time.Hour {
		t.Fatalf("RefreshInterval = %s, want 6h", s.AstDB.RefreshInterval)
	}
	if s.AllowedHostsSyncInterval != 10*time.Second {
		t.Fatalf("AllowedHostsSyncInterval = %s, want 10s", s.AllowedHostsSyncInterval)
	}
}

func TestSetGetSettings(t *testing.T) {
	defer SetSettings(Settings{})

	s := Settings{Port: 1234}
	SetSettings(s)
	if got := GetSettings(); got.Port != 1234 {
		t.Fatalf("GetSettings().Port = %d, want 1234", got.Port)
	}
}
