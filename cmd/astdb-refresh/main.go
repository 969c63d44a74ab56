package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"nodebackup/internal/astdb"
	"nodebackup/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}

	settings := config.FromEnv()

	url := flag.String("url", settings.AstDB.URL, "Node list source URL")
	private := flag.String("private", settings.AstDB.PrivateFile, "Private node list merged into the output")
	output := flag.String("out", settings.AstDB.File, "Node database file to write")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := astdb.Refresh(ctx, astdb.Options{
		URL:         *url,
		PrivateFile: *private,
		OutputFile:  *output,
	})
	if err != nil {
		log.Fatal("node database refresh failed", "error", err)
	}

	log.Info("Node database written",
		"file", *output,
		"remote", outcome.Remote,
		"private", outcome.Private,
		"written", outcome.Written,
	)
}
