package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"nodebackup/internal/access"
	"nodebackup/internal/app/server"
	"nodebackup/internal/astdb"
	"nodebackup/internal/backup"
	"nodebackup/internal/config"
	"nodebackup/internal/geo"
	"nodebackup/internal/support"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	settings := config.FromEnv()

	portFlag := flag.Int("port", settings.Port, "Port to listen on")
	allowlistFlag := flag.String("allowlist", settings.Allowlist.File, "Allowlist file")
	flag.Parse()

	settings.Port = resolvePort("PORT", *portFlag)
	settings.Allowlist.File = *allowlistFlag
	config.SetSettings(settings)

	configureLogging(settings.LogLevel)

	// Refuse to start without a valid allowlist rather than serve with an
	// empty one.
	list, err := access.Load(settings.Allowlist.File, settings.Allowlist.Key)
	if err != nil {
		return fmt.Errorf("load allowlist: %w", err)
	}
	literals, cidrs := list.Len()
	log.Info("Allowlist loaded", "source", settings.Allowlist.File, "addresses", literals, "ranges", cidrs)
	log.Debug("Allowlist ranges in effect", "cidrs", list.CIDRs())

	store := access.NewStore(list)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchReload(ctx, store)

	eval := access.Evaluator{
		Extensions: access.DefaultProtectedExtensions(),
		IndexName:  settings.Allowlist.IndexName,
	}

	var redisClient *redis.Client
	if settings.RedisURL != "" {
		redisClient, err = support.OpenRedis(ctx, settings.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to get redis client: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("error closing redis client", "error", err)
			}
		}()

		hosts := access.NewRedisHosts(redisClient)
		eval.Hosts = hosts
		go hosts.Run(ctx, settings.AllowedHostsSyncInterval)
	}

	var countries access.CountryLookup
	if settings.GeoLiteCountryDB != "" {
		resolver, err := geo.Open(settings.GeoLiteCountryDB)
		if err != nil {
			log.Warn("GeoLite country lookups disabled", "error", err)
		} else {
			defer resolver.Close()
			countries = resolver
		}
	}

	backups, err := backup.NewService(settings.Backup.StagingDir, settings.Backup.UploadMaxBytes)
	if err != nil {
		return err
	}

	go astdb.StartRefreshRoutine(ctx, settings.AstDB.RefreshInterval, astdb.Options{
		URL:         settings.AstDB.URL,
		PrivateFile: settings.AstDB.PrivateFile,
		OutputFile:  settings.AstDB.File,
	}, redisClient)

	handler := server.NewRouter(server.Dependencies{
		Allowlist: store,
		Evaluator: eval,
		Geo:       countries,
		Backups:   backups,
	})

	addr := net.JoinHostPort(settings.ListenHost, strconv.Itoa(settings.Port))
	return server.OpenRoutes(ctx, addr, settings.MaxConnections, handler)
}

// watchReload reloads the allowlist on SIGHUP.
func watchReload(ctx context.Context, store *access.Store) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reloadAllowlist(store)
		}
	}
}

// reloadAllowlist reloads from the file named in the current settings. A
// failed reload keeps the current allowlist.
func reloadAllowlist(store *access.Store) {
	settings := config.GetSettings()
	err := store.Reload(settings.Allowlist.File, settings.Allowlist.Key)
	if err == nil {
		return
	}

	var cfgErr *access.ConfigError
	if errors.As(err, &cfgErr) {
		log.Error("Allowlist reload rejected, keeping current list", "error", err)
		return
	}
	log.Error("Allowlist reload failed", "error", err)
}

func configureLogging(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("invalid log level, using info", "value", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// resolvePort prefers a valid env override, then the flag value.
func resolvePort(envKey string, fallback int) int {
	if port := readPort(envKey); port != 0 {
		return port
	}
	return fallback
}

func readPort(envKey string) int {
	raw := os.Getenv(envKey)
	if raw == "" {
		return 0
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		log.Warn("invalid port override", "env", envKey, "value", raw)
		return 0
	}
	return port
}
