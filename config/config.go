/*
NAME
  config.go defines the command-line configuration surface for the afgs1mux
  and afgs1standalone binaries (§6.4): host bitstream paths, one or more
  film grain parameter table specifications, the sequence frame rate and
  the standalone payload-dump flags.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config parses and validates the command-line configuration shared
// by this project's driver binaries.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by Config.Validate and ParseInputSpecs.
var (
	ErrNoInput        = errors.New("config: at least one --input table is required")
	ErrNoBitstreamIn  = errors.New("config: --BitstreamFileIn is required")
	ErrMalformedInput = errors.New("config: malformed --input specification")
	ErrMalformedFPS   = errors.New("config: malformed --fps value")
)

// InputSpec names one film grain parameter table and the picture resolution
// it applies to, as parsed from a repeated -p/--input flag.
type InputSpec struct {
	Path   string
	Width  int
	Height int
}

// inputList implements flag.Value, accumulating the InputSpecs of every
// occurrence of -p/--input. One occurrence carries either a single
// "path,width,height" triple or several triples comma-concatenated
// ("a.txt,1920,1080,b.txt,3840,2160"), and the flag may be repeated (both
// forms used in practice by the host encoder's job scripts).
type inputList struct {
	specs *[]InputSpec
}

func (l *inputList) String() string {
	if l.specs == nil {
		return ""
	}
	var parts []string
	for _, s := range *l.specs {
		parts = append(parts, fmt.Sprintf("%s,%d,%d", s.Path, s.Width, s.Height))
	}
	return strings.Join(parts, ";")
}

func (l *inputList) Set(value string) error {
	fields := strings.Split(value, ",")
	if len(fields)%3 != 0 {
		return fmt.Errorf("%w: %q (want path,width,height)", ErrMalformedInput, value)
	}
	for i := 0; i < len(fields); i += 3 {
		spec, err := parseInputSpec(strings.Join(fields[i:i+3], ","))
		if err != nil {
			return err
		}
		*l.specs = append(*l.specs, spec)
	}
	return nil
}

// parseInputSpec parses a single "path,width,height" triple.
func parseInputSpec(value string) (InputSpec, error) {
	fields := strings.Split(value, ",")
	if len(fields) != 3 {
		return InputSpec{}, fmt.Errorf("%w: %q (want path,width,height)", ErrMalformedInput, value)
	}
	width, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return InputSpec{}, fmt.Errorf("%w: width: %v", ErrMalformedInput, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return InputSpec{}, fmt.Errorf("%w: height: %v", ErrMalformedInput, err)
	}
	return InputSpec{Path: strings.TrimSpace(fields[0]), Width: width, Height: height}, nil
}

// ParseInputSpecs parses a set of raw -p/--input flag values into
// InputSpecs. Each value holds one "path,width,height" triple or several
// comma-concatenated triples, exactly as the flag accepts. This is the form
// used when a caller collects flag.Value occurrences itself rather than
// registering Config.RegisterFlags's inputList.
func ParseInputSpecs(raw []string) ([]InputSpec, error) {
	specs := make([]InputSpec, 0, len(raw))
	l := &inputList{specs: &specs}
	for _, r := range raw {
		if err := l.Set(r); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// frameRate implements flag.Value for the -f/--fps flag, which takes the
// frame rate as a "<num>/<den>" rational (e.g. "30000/1001"), matching the
// original command line's strtok(arg, "/") parsing rather than a decimal
// approximation.
type frameRate struct {
	num, denom *uint64
}

func (f frameRate) String() string {
	if f.num == nil || f.denom == nil || *f.denom == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", *f.num, *f.denom)
}

func (f frameRate) Set(value string) error {
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		return fmt.Errorf("%w: %q (want num/den, e.g. 30000/1001)", ErrMalformedFPS, value)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: numerator: %v", ErrMalformedFPS, err)
	}
	d, err := strconv.ParseUint(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: denominator: %v", ErrMalformedFPS, err)
	}
	if d == 0 {
		return fmt.Errorf("%w: denominator must not be 0", ErrMalformedFPS)
	}
	*f.num = n
	*f.denom = d
	return nil
}

// Config holds the parsed command-line configuration common to this
// project's driver binaries.
type Config struct {
	// BitstreamFileIn is the host H.264/H.265 Annex-B elementary stream to
	// read pictures from.
	BitstreamFileIn string

	// BitstreamFileOut is where the spliced elementary stream is written.
	// Empty means afgs1mux splices the stream but writes no output file.
	BitstreamFileOut string

	// Inputs lists one or more film grain parameter tables, each scoped to
	// a picture resolution (§6.4, multi-resolution support).
	Inputs []InputSpec

	// FrameRateNum and FrameRateDenom give the sequence frame rate as a
	// rational, used to derive each picture's presentation time from its
	// picture order count (§4.6).
	FrameRateNum   uint64
	FrameRateDenom uint64

	// OutputFrame, when non-negative, selects afgs1standalone's single-frame
	// dump mode: only the AFGS1 payload for this 0-based picture index is
	// written, to the path named by Output.
	OutputFrame int
	Output      string

	// WarnUnknownParameter is set by -w/--WarnUnknowParameter. No code reads
	// it: unknown command-line options and unrecognised filmgrn1 table
	// fields are errors whether or not it is set.
	WarnUnknownParameter bool
}

// RegisterFlags registers c's fields against fs, following this project's
// convention of a short and a long flag name for options inherited from the
// original command-line surface.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.BitstreamFileIn, "b", "", "host bitstream to read (required)")
	fs.StringVar(&c.BitstreamFileIn, "BitstreamFileIn", "", "host bitstream to read (required)")
	fs.StringVar(&c.BitstreamFileOut, "o", "", "host bitstream to write")
	fs.StringVar(&c.BitstreamFileOut, "BitstreamFileOut", "", "host bitstream to write")

	list := &inputList{specs: &c.Inputs}
	fs.Var(list, "p", "film grain parameter table, as path,width,height (repeatable)")
	fs.Var(list, "input", "film grain parameter table, as path,width,height (repeatable)")

	c.FrameRateNum, c.FrameRateDenom = 25, 1
	fr := frameRate{num: &c.FrameRateNum, denom: &c.FrameRateDenom}
	fs.Var(fr, "f", "sequence frame rate, as num/den (e.g. 30000/1001)")
	fs.Var(fr, "fps", "sequence frame rate, as num/den (e.g. 30000/1001)")

	fs.IntVar(&c.OutputFrame, "output_frame", -1, "standalone mode: 0-based picture index to dump")
	fs.StringVar(&c.Output, "output", "", "standalone mode: path to write the dumped payload")

	fs.BoolVar(&c.WarnUnknownParameter, "w", false, "accepted but has no effect")
	fs.BoolVar(&c.WarnUnknownParameter, "WarnUnknowParameter", false, "accepted but has no effect")
}

// Validate checks that c describes a usable afgs1mux run: a host bitstream
// to splice into, plus at least one film grain parameter table.
func (c *Config) Validate() error {
	if c.BitstreamFileIn == "" {
		return ErrNoBitstreamIn
	}
	return c.validateInputs()
}

// ValidateStandalone checks that c describes a usable afgs1standalone run.
// Unlike Validate, it does not require BitstreamFileIn: afgs1standalone
// (§6.4) dumps a single frame's AFGS1 payload straight from the parameter
// tables and never reads a host bitstream.
func (c *Config) ValidateStandalone() error {
	return c.validateInputs()
}

func (c *Config) validateInputs() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	for _, in := range c.Inputs {
		if in.Width <= 0 || in.Height <= 0 {
			return fmt.Errorf("%w: %s: non-positive resolution %dx%d", ErrMalformedInput, in.Path, in.Width, in.Height)
		}
	}
	return nil
}
