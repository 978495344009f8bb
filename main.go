package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/MdMeraj01/youtube-downloader/internal"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	"github.com/joho/godotenv"
)

var log = logger.Get("Main")

// main is the entry point to the program. Configuration is loaded from
// the YAML file given by -config (if present) with environment
// variables taking precedence.
func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Emit(logger.DEBUG, "Loaded environment overrides from .env\n")
	}

	config := internal.GrabberConfig{}
	if *configPath != "" {
		if err := config.LoadFromFile(*configPath); err != nil {
			log.Emit(logger.FATAL, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	} else if err := config.LoadFromEnv(); err != nil {
		log.Emit(logger.FATAL, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Server stopped with error: %v\n", err)
		os.Exit(1)
	}

	log.Emit(logger.STOP, "Server stopped\n")
}
