package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"linkmute/internal/config"
	"linkmute/internal/daemonrun"
)

var version = "dev"

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parse arguments: %v", err)
	}
	if opts.showVersion {
		fmt.Printf("linkmuted %s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: opts.logLevel}); err != nil {
		os.Exit(1)
	}
}

type daemonArgs struct {
	configPath  string
	logLevel    string
	showVersion bool
}

func parseArgs(args []string) (daemonArgs, error) {
	var parsed daemonArgs

	fs := flag.NewFlagSet("linkmuted", flag.ContinueOnError)
	fs.StringVar(&parsed.configPath, "config", "", "path to configuration file")
	fs.StringVar(&parsed.logLevel, "log-level", "", "override configured log level")
	fs.BoolVar(&parsed.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return daemonArgs{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return daemonArgs{}, fmt.Errorf("unexpected arguments: %v", rest)
	}
	return parsed, nil
}
