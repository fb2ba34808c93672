package ddc

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"brightctl/internal/command"
)

// DdcutilTimeout bounds a single ddcutil invocation. Capabilities reads on
// slow monitors take several seconds.
const DdcutilTimeout = 10 * time.Second

var (
	reDisplay      = regexp.MustCompile(`^Display (\d+)`)
	reBus          = regexp.MustCompile(`/dev/i2c-(\d+)`)
	reCurrentValue = regexp.MustCompile(`current value =\s*(\d+)`)
	reMaxValue     = regexp.MustCompile(`max value =\s*(\d+)`)
)

// Ddcutil is a Backend that shells out to the ddcutil helper.
type Ddcutil struct {
	exec    command.Executor
	Bus     int // used when >= 0
	Display int // ddcutil display number, used when Bus < 0
}

// NewDdcutil returns a helper backend addressing bus.
func NewDdcutil(exec command.Executor, bus int) *Ddcutil {
	return &Ddcutil{exec: exec, Bus: bus, Display: -1}
}

// DdcutilOpener returns an Opener that binds the helper to a bus.
func DdcutilOpener(exec command.Executor) Opener {
	return func(bus int) (Backend, error) {
		return NewDdcutil(exec, bus), nil
	}
}

func (d *Ddcutil) String() string {
	if d.Bus >= 0 {
		return fmt.Sprintf("ddcutil:bus=%d", d.Bus)
	}
	return fmt.Sprintf("ddcutil:display=%d", d.Display)
}

// Close is a no-op; every call is a separate process.
func (*Ddcutil) Close() error { return nil }

func (d *Ddcutil) target() []string {
	if d.Bus >= 0 {
		return []string{"--bus", strconv.Itoa(d.Bus)}
	}
	return []string{"--display", strconv.Itoa(d.Display)}
}

func (d *Ddcutil) output(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DdcutilTimeout)
	defer cancel()

	full := slices.Concat(args, d.target())
	start := time.Now()
	out, err := d.exec.Output(ctx, "ddcutil", full...)
	log.Debug().Err(err).Strs("args", full).Dur("took", time.Since(start)).Msg("ddcutil")
	if err != nil {
		return "", fmt.Errorf("ddcutil %s: %w", args[0], err)
	}
	return string(out), nil
}

// GetFeature runs `ddcutil getvcp`. Output looks like:
//
//	VCP code 0x10 (Brightness): current value =    50, max value =   100
func (d *Ddcutil) GetFeature(ctx context.Context, code byte) (Feature, error) {
	out, err := d.output(ctx, "getvcp", fmt.Sprintf("0x%02x", code))
	if err != nil {
		return Feature{}, err
	}

	m := reCurrentValue.FindStringSubmatch(out)
	if len(m) < 2 {
		return Feature{}, fmt.Errorf("%w: no current value in %q", ErrHelperOutput, strings.TrimSpace(out))
	}
	current, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return Feature{}, fmt.Errorf("%w: current value %q: %w", ErrHelperOutput, m[1], err)
	}

	f := Feature{Current: uint16(current)}
	if m := reMaxValue.FindStringSubmatch(out); len(m) > 1 {
		if v, err := strconv.ParseUint(m[1], 10, 16); err == nil {
			f.Max = uint16(v)
		}
	}
	return f, nil
}

// SetFeature runs `ddcutil setvcp`; success is the exit status.
func (d *Ddcutil) SetFeature(ctx context.Context, code byte, value uint16) error {
	ctx, cancel := context.WithTimeout(ctx, DdcutilTimeout)
	defer cancel()

	args := append([]string{"setvcp", fmt.Sprintf("0x%02x", code), strconv.Itoa(int(value))}, d.target()...)
	start := time.Now()
	err := d.exec.Run(ctx, "ddcutil", args...)
	log.Debug().Err(err).Strs("args", args).Dur("took", time.Since(start)).Msg("ddcutil")
	if err != nil {
		return fmt.Errorf("ddcutil setvcp: %w", err)
	}
	return nil
}

// Capabilities runs `ddcutil capabilities --verbose` and returns the
// unparsed capabilities string it prints.
func (d *Ddcutil) Capabilities(ctx context.Context) (string, error) {
	out, err := d.output(ctx, "capabilities", "--verbose")
	if err != nil {
		return "", err
	}

	for line := range strings.Lines(out) {
		_, rest, ok := strings.Cut(line, "Unparsed capabilities string:")
		if !ok {
			continue
		}
		if caps := CleanCapabilities([]byte(rest)); caps != "" {
			return caps, nil
		}
		return "", ErrCorruptCapabilities
	}
	return "", fmt.Errorf("%w: no capabilities string", ErrHelperOutput)
}

// DetectDdcutil runs `ddcutil detect --terse` and lists the displays it
// reports. Invalid displays are skipped.
func DetectDdcutil(ctx context.Context, exec command.Executor) ([]DetectedDisplay, error) {
	ctx, cancel := context.WithTimeout(ctx, DdcutilTimeout)
	defer cancel()

	out, err := exec.Output(ctx, "ddcutil", "detect", "--terse")
	if err != nil {
		log.Debug().Err(err).Msg("ddcutil detect")
		return nil, fmt.Errorf("ddcutil detect: %w", err)
	}
	return parseDetectOutput(string(out)), nil
}

func parseDetectOutput(output string) []DetectedDisplay {
	var displays []DetectedDisplay
	var current *DetectedDisplay

	flush := func() {
		if current != nil {
			displays = append(displays, *current)
			current = nil
		}
	}

	for line := range strings.Lines(output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := reDisplay.FindStringSubmatch(line); m != nil {
			flush()
			n, _ := strconv.Atoi(m[1])
			current = &DetectedDisplay{Number: n, Bus: -1}
			continue
		}
		if strings.HasPrefix(line, "Invalid display") {
			flush()
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "I2C bus:"):
			if m := reBus.FindStringSubmatch(line); m != nil {
				current.Bus, _ = strconv.Atoi(m[1])
			}
		case strings.HasPrefix(line, "Monitor:"):
			// Monitor: ACR:VG270U:TGHAA0014200
			parts := strings.SplitN(extractField(line, "Monitor:"), ":", 3)
			current.Mfg = parts[0]
			if len(parts) > 1 {
				current.Model = parts[1]
			}
			if len(parts) > 2 {
				current.Serial = parts[2]
			}
		case strings.HasPrefix(line, "Mfg"):
			// Mfg: ACR Model: VG270U
			mfg := extractField(line, "Mfg:")
			mfg, model, _ := strings.Cut(mfg, "Model:")
			current.Mfg = strings.TrimSpace(mfg)
			current.Model = strings.TrimSpace(model)
		}
	}
	flush()

	return displays
}

func extractField(line, fieldName string) string {
	_, value, ok := strings.Cut(line, fieldName)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
