/*
DESCRIPTION
  afgs1standalone dumps the raw AFGS1 film_grain_param_sets payload for a
  single picture, without touching a host bitstream. This mirrors the
  tool-mode split the original source keeps between its muxing application
  and its standalone payload dumper (§6.2, supplemental feature).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package afgs1standalone dumps a single picture's AFGS1 payload bytes to
// a file, for inspection or conformance testing without a host bitstream.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/afgs1/config"
	"github.com/ausocean/afgs1/database"
	"github.com/ausocean/afgs1/grainbuf"
	"github.com/ausocean/afgs1/inject"
	"github.com/ausocean/utils/logging"
)

const (
	progName     = "afgs1standalone"
	logPath      = "afgs1standalone.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

var errNoOutputFrame = errors.New("afgs1standalone: --output_frame is required")

func main() {
	var cfg config.Config
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if err := run(&cfg, log); err != nil {
		log.Fatal(progName+": "+err.Error(), "error", err)
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	if err := cfg.ValidateStandalone(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.OutputFrame < 0 {
		return errNoOutputFrame
	}
	if cfg.Output == "" {
		return errors.New("afgs1standalone: --output is required")
	}

	alloc := database.NewIdxAllocator()
	db := database.New(alloc)
	for _, in := range cfg.Inputs {
		if err := db.LoadTable(in.Path, in.Width, in.Height); err != nil {
			return fmt.Errorf("loading %q: %w", in.Path, err)
		}
	}

	orc := inject.New(db, grainbuf.New(), inject.WithLogger(log))

	poc := uint64(cfg.OutputFrame)
	t := int64(inject.PresentationTime(poc, cfg.FrameRateNum, cfg.FrameRateDenom))
	// Each invocation starts with a fresh, empty BufferModel, so there is
	// never prediction state to carry from a prior picture; treat the
	// dumped picture as an IRAP unconditionally.
	payload, err := orc.ProcessPicture(t, poc, true)
	if err != nil {
		return fmt.Errorf("processing picture %d: %w", cfg.OutputFrame, err)
	}
	if payload == nil {
		log.Info("no active parameter sets for this picture; writing empty file", "frame", cfg.OutputFrame)
		payload = []byte{}
	}

	if err := os.WriteFile(cfg.Output, payload, 0644); err != nil {
		return fmt.Errorf("writing %q: %w", cfg.Output, err)
	}
	log.Info("wrote payload", "path", cfg.Output, "bytes", len(payload))
	return nil
}
