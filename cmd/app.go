package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"brightctl/internal/command"
	"brightctl/internal/config"
	"brightctl/internal/ddc"
	"brightctl/internal/display"
	"brightctl/internal/drm"
	"brightctl/internal/logging"
	"brightctl/internal/xrandr"
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg      *config.Instance
	fs       afero.Fs
	exec     command.Executor
	detector *ddc.Detector
	backend  ddc.BackendKind
	ddc      *ddc.Client // nil when no backend is usable
	registry *display.Registry
	ctrl     *display.Controller
	prefer   display.Method
}

func console() *os.File {
	if verbose {
		return os.Stderr
	}
	return nil
}

func newApp(ctx context.Context) (*app, error) {
	opts := logging.Options{
		Dir:   config.StateDir(),
		File:  config.LogFile,
		Debug: verbose,
	}
	if f := console(); f != nil {
		opts.Console = f
	}
	if err := logging.Init(opts); err != nil {
		return nil, err
	}

	cfg, err := config.NewConfig(config.Dir(), cfgPath, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	vals := cfg.Values()
	if cfg.DebugLogging() {
		logging.SetDebug(true)
	}

	a := &app{
		cfg:  cfg,
		fs:   afero.NewOsFs(),
		exec: &command.RealExecutor{},
	}
	a.detector = ddc.NewDetector(a.fs, a.exec, vals.Discovery.DevDir)

	pref := vals.Control.Prefer
	if methodFlag != "" {
		pref = methodFlag
	}
	if a.prefer, err = display.ParseMethod(pref); err != nil {
		return nil, err
	}

	var ddcChannel display.DDC
	a.backend, err = a.detector.SelectBackend(ddc.BackendKind(vals.DDC.Backend))
	if err != nil {
		log.Warn().Err(err).Msg("hardware brightness control unavailable")
	} else {
		a.ddc = ddc.NewClient(a.opener(), ddc.WithRetries(vals.DDC.Retries, cfg.RetryBackoff()))
		ddcChannel = a.ddc
	}

	var outputs display.Outputs
	if _, err := a.exec.LookPath("xrandr"); err == nil && os.Getenv("DISPLAY") != "" {
		outputs = xrandr.NewClient(a.exec)
	} else {
		log.Debug().Msg("xrandr or DISPLAY missing, software brightness disabled")
	}

	a.registry = display.NewRegistry(display.RegistryConfig{
		Fs:          a.fs,
		DevDir:      vals.Discovery.DevDir,
		MaxBus:      vals.Discovery.MaxBus,
		ReadBusEDID: vals.Discovery.ReadBusEDID,
		Static:      cfg.StaticBuses(),
		Namer:       a.namer(ctx, vals.Adapters),
	}, ddcChannel, drm.NewSysfs(a.fs, vals.Discovery.SysfsDRM), outputs)
	a.ctrl = display.NewController(ddcChannel, outputs, vals.Control.MaxConcurrency)
	return a, nil
}

func (a *app) opener() ddc.Opener {
	if a.backend == ddc.BackendDdcutil {
		return ddc.DdcutilOpener(a.exec)
	}
	return ddc.I2COpener(nil)
}

func (a *app) namer(ctx context.Context, cfg config.Adapters) *drm.Namer {
	namer, err := drm.NewNamer()
	if err != nil {
		log.Warn().Err(err).Msg("loading built-in pci id table")
		return nil
	}
	if cfg.PCIIDs != "" {
		if err := namer.LoadCSV(a.fs, cfg.PCIIDs); err != nil {
			log.Warn().Err(err).Str("path", cfg.PCIIDs).Msg("loading pci id table")
		}
	}
	if cfg.Lspci {
		if _, err := a.exec.LookPath("lspci"); err == nil {
			out, err := a.exec.Output(ctx, "lspci", "-nn")
			if err != nil {
				log.Debug().Err(err).Msg("lspci -nn")
			} else {
				namer.LoadLspci(string(out))
			}
		}
	}
	return namer
}

// discover runs one discovery pass.
func (a *app) discover(ctx context.Context) ([]display.Info, error) {
	displays, err := a.registry.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover displays: %w", err)
	}
	return displays, nil
}

// requireDDC returns the hardware client or a helpful error.
func (a *app) requireDDC() (*ddc.Client, error) {
	if a.ddc == nil {
		return nil, fmt.Errorf("%w: run `brightctl doctor`", ddc.ErrNoBackend)
	}
	return a.ddc, nil
}
