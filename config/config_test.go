package config

import (
	"errors"
	"flag"
	"testing"
)

func TestParseInputSpecsCommaForm(t *testing.T) {
	specs, err := ParseInputSpecs([]string{"table.txt,1920,1080,other.txt,3840,2160"})
	if err != nil {
		t.Fatalf("ParseInputSpecs: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	want := InputSpec{Path: "table.txt", Width: 1920, Height: 1080}
	if specs[0] != want {
		t.Errorf("got %+v, want %+v", specs[0], want)
	}
}

func TestParseInputSpecsMalformed(t *testing.T) {
	if _, err := ParseInputSpecs([]string{"table.txt,1920"}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("got err %v, want ErrMalformedInput", err)
	}
	if _, err := ParseInputSpecs([]string{"table.txt,x,1080"}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("got err %v, want ErrMalformedInput", err)
	}
}

// TestRegisterFlagsRepeatedInput exercises the repeated -p/--input flag
// form: one occurrence per table.
func TestRegisterFlagsRepeatedInput(t *testing.T) {
	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	err := fs.Parse([]string{
		"-b", "in.h264",
		"-p", "a.txt,1920,1080",
		"-p", "b.txt,3840,2160",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Inputs) != 2 {
		t.Fatalf("got %d inputs, want 2", len(c.Inputs))
	}
	if c.Inputs[1].Width != 3840 || c.Inputs[1].Height != 2160 {
		t.Errorf("got %+v, want width 3840 height 2160", c.Inputs[1])
	}
	if c.BitstreamFileIn != "in.h264" {
		t.Errorf("got BitstreamFileIn %q, want in.h264", c.BitstreamFileIn)
	}
}

func TestRegisterFlagsFrameRateNTSC(t *testing.T) {
	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"--fps", "30000/1001"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.FrameRateNum != 30000 || c.FrameRateDenom != 1001 {
		t.Errorf("got %d/%d, want 30000/1001", c.FrameRateNum, c.FrameRateDenom)
	}
}

func TestRegisterFlagsFrameRateInteger(t *testing.T) {
	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-f", "25/1"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.FrameRateNum != 25 || c.FrameRateDenom != 1 {
		t.Errorf("got %d/%d, want 25/1", c.FrameRateNum, c.FrameRateDenom)
	}
}

func TestRegisterFlagsFrameRateDefault(t *testing.T) {
	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.FrameRateNum != 25 || c.FrameRateDenom != 1 {
		t.Errorf("got %d/%d, want default 25/1", c.FrameRateNum, c.FrameRateDenom)
	}
}

func TestRegisterFlagsFrameRateRejectsDecimal(t *testing.T) {
	var num, denom uint64
	fr := frameRate{num: &num, denom: &denom}
	if err := fr.Set("29.97"); !errors.Is(err, ErrMalformedFPS) {
		t.Errorf("got err %v, want ErrMalformedFPS", err)
	}
}

func TestValidateRequiresBitstreamIn(t *testing.T) {
	c := Config{Inputs: []InputSpec{{Path: "a.txt", Width: 1920, Height: 1080}}}
	if err := c.Validate(); !errors.Is(err, ErrNoBitstreamIn) {
		t.Errorf("got %v, want ErrNoBitstreamIn", err)
	}
}

func TestValidateRequiresInput(t *testing.T) {
	c := Config{BitstreamFileIn: "in.h264"}
	if err := c.Validate(); !errors.Is(err, ErrNoInput) {
		t.Errorf("got %v, want ErrNoInput", err)
	}
}

// TestValidateStandaloneAllowsMissingBitstreamIn covers afgs1standalone,
// which dumps a payload from the parameter tables alone and never reads a
// host bitstream.
func TestValidateStandaloneAllowsMissingBitstreamIn(t *testing.T) {
	c := Config{
		Inputs:      []InputSpec{{Path: "a.txt", Width: 1920, Height: 1080}},
		OutputFrame: 0,
		Output:      "frame0.bin",
	}
	if err := c.ValidateStandalone(); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestValidateStandaloneRequiresInput(t *testing.T) {
	c := Config{OutputFrame: 0, Output: "frame0.bin"}
	if err := c.ValidateStandalone(); !errors.Is(err, ErrNoInput) {
		t.Errorf("got %v, want ErrNoInput", err)
	}
}

func TestValidateRejectsNonPositiveResolution(t *testing.T) {
	c := Config{
		BitstreamFileIn: "in.h264",
		Inputs:          []InputSpec{{Path: "a.txt", Width: 0, Height: 1080}},
	}
	if err := c.Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("got %v, want ErrMalformedInput", err)
	}
}
