/*
DESCRIPTION
  afgs1mux reads a host H.264/H.265 Annex-B elementary stream, a set of
  filmgrn1 film grain parameter tables, and splices an AFGS1 user-data SEI
  message in front of every picture's first coded slice, per §6.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package afgs1mux is a command-line driver that splices AFGS1 film grain
// SEI messages into a host H.264/H.265 elementary stream.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/afgs1/config"
	"github.com/ausocean/afgs1/database"
	"github.com/ausocean/afgs1/grainbuf"
	"github.com/ausocean/afgs1/inject"
	"github.com/ausocean/afgs1/nal"
	"github.com/ausocean/utils/logging"
)

const (
	progName     = "afgs1mux"
	logPath      = "afgs1mux.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

func main() {
	var cfg config.Config
	cfg.RegisterFlags(flag.CommandLine)
	codecFlag := flag.String("codec", "h264", "host codec: h264 or h265")
	disablePredFlag := flag.Bool("disable_prediction", false, "always retransmit parameter sets in full (debug)")
	watchFlag := flag.Bool("watch", false, "re-run the mux whenever an input table file changes on disk")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if err := run(&cfg, *codecFlag, *disablePredFlag, log); err != nil {
		log.Fatal(progName+": "+err.Error(), "error", err)
	}

	if *watchFlag {
		if err := watchInputs(&cfg, *codecFlag, *disablePredFlag, log); err != nil {
			log.Fatal(progName+": watch: "+err.Error(), "error", err)
		}
	}
}

// watchInputs re-runs the mux every time one of cfg's input tables changes
// on disk, blocking until the process is killed. This is a batch-tooling
// convenience for iterating on a table alongside a fixed host bitstream,
// not a production streaming mode.
func watchInputs(cfg *config.Config, codecName string, disablePred bool, log logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	for _, in := range cfg.Inputs {
		if err := w.Add(in.Path); err != nil {
			return fmt.Errorf("watching %q: %w", in.Path, err)
		}
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Info("input table changed, re-running", "path", ev.Name)
			if err := run(cfg, codecName, disablePred, log); err != nil {
				log.Error("re-run failed", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err)
		}
	}
}

func run(cfg *config.Config, codecName string, disablePred bool, log logging.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	codec := nal.H264
	if codecName == "h265" {
		codec = nal.H265
	}

	alloc := database.NewIdxAllocator()
	db := database.New(alloc)
	for _, in := range cfg.Inputs {
		if err := db.LoadTable(in.Path, in.Width, in.Height); err != nil {
			return fmt.Errorf("loading %q: %w", in.Path, err)
		}
	}

	orc := inject.New(db, grainbuf.New(),
		inject.WithPredictionDisabled(disablePred),
		inject.WithLogger(log))

	in, err := os.ReadFile(cfg.BitstreamFileIn)
	if err != nil {
		return fmt.Errorf("reading %q: %w", cfg.BitstreamFileIn, err)
	}

	units, err := nal.Split(in, codec)
	if err != nil {
		return fmt.Errorf("splitting %q: %w", cfg.BitstreamFileIn, err)
	}

	out, err := spliceSEI(units, codec, orc, cfg.FrameRateNum, cfg.FrameRateDenom, log)
	if err != nil {
		return fmt.Errorf("splicing: %w", err)
	}

	if cfg.BitstreamFileOut == "" {
		log.Info("no --BitstreamFileOut given, nothing written")
		return nil
	}
	if err := writeFileSynced(cfg.BitstreamFileOut, nal.Marshal(out)); err != nil {
		return fmt.Errorf("writing %q: %w", cfg.BitstreamFileOut, err)
	}
	log.Info("wrote spliced bitstream", "path", cfg.BitstreamFileOut, "units", len(out))
	return nil
}

// writeFileSynced writes data to path and fsyncs the descriptor before
// close, so a spliced bitstream handed to a downstream packager is never
// left in a half-flushed state on disk.
func writeFileSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := unix.Fsync(int(f.Fd())); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// spliceSEI walks units in order, maintaining a picture counter that
// resets at every IRAP picture, and inserts an AFGS1 SEI NAL unit
// immediately before each picture's first coded slice whenever the
// orchestrator reports active parameter sets for that picture (§6.3).
// Slice headers are not parsed: a picture is a run of slice NAL units ended
// by any non-slice NAL unit, so consecutive pictures with no other NAL unit
// between them count as one picture. The counter passed as poc follows
// decode order, which equals picture order count only when pictures are
// coded in display order.
func spliceSEI(units []nal.Unit, codec nal.Codec, orc *inject.Orchestrator, fpsNum, fpsDenom uint64, log logging.Logger) ([]nal.Unit, error) {
	var out []nal.Unit
	var poc uint64
	picStarted := false

	for _, u := range units {
		if u.IsSlice(codec) {
			if !picStarted {
				irap := u.IsIRAP(codec)
				if irap {
					poc = 0
				}
				t := int64(inject.PresentationTime(poc, fpsNum, fpsDenom))
				payload, err := orc.ProcessPicture(t, poc, irap)
				if err != nil {
					return nil, err
				}
				if payload != nil {
					sei := nal.BuildSEIUnit(payload, codec)
					out = append(out, sei)
					log.Debug("inserted AFGS1 SEI", "poc", poc, "bytes", len(payload))
				}
				poc++
				picStarted = true
			}
		} else {
			picStarted = false
		}
		out = append(out, u)
	}
	return out, nil
}
