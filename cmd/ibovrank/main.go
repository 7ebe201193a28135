package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"

	"ibovrank/internal/config"
	"ibovrank/internal/pipeline"
)

func main() {
	if len(os.Args) > 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	must(err)
	setupLogging(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := pipeline.NewProcessingService(cfg).Run(ctx)
	must(err)

	fmt.Printf("The files '%s' and '%s' have been created.\n", filepath.Base(res.CSVPath), filepath.Base(res.XLSXPath))
}

func setupLogging(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using warn", level)
		parsed = log.WarnLevel
	}
	log.SetLevel(parsed)
}

func usage() {
	fmt.Println("usage: ibovrank")
	fmt.Println("ranks IBOV constituents from ./ibov_stocks.csv when present, otherwise from the B3 API,")
	fmt.Println("and writes sorted_ibov_stocks.csv and sorted_ibov_stocks.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
