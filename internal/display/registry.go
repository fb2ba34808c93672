package display

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"brightctl/internal/correlate"
	"brightctl/internal/drm"
	"brightctl/internal/edid"
	"brightctl/internal/xrandr"
)

// DefaultMaxBus is the highest I2C bus index scanned by default.
const DefaultMaxBus = 10

// DDC is the hardware channel used by the registry and the controller.
// *ddc.Client satisfies it.
type DDC interface {
	Brightness(ctx context.Context, bus int) (current, maxValue int, err error)
	SetBrightness(ctx context.Context, bus, value int) error
	ReadEDID(ctx context.Context, bus int) ([]byte, error)
}

// Connectors lists kernel connectors and their adapters. *drm.Sysfs
// satisfies it.
type Connectors interface {
	Connectors() ([]drm.Connector, error)
	Adapter(card int) drm.Adapter
}

// Outputs is the display-server channel. *xrandr.Client satisfies it.
type Outputs interface {
	Outputs(ctx context.Context) ([]xrandr.Output, error)
	Brightness(ctx context.Context, name string) (float64, error)
	SetBrightness(ctx context.Context, name string, factor float64) error
}

// RegistryConfig holds the discovery settings.
type RegistryConfig struct {
	Fs          afero.Fs
	DevDir      string         // where i2c-N nodes live, default /dev
	MaxBus      int            // highest bus index scanned
	ReadBusEDID bool           // read EDID at 0x50 on every bus
	Static      map[int]string // bus -> connector, last-resort mapping
	Namer       *drm.Namer
}

// Registry discovers displays. Connectors and Outputs may be nil when the
// host has no DRM sysfs or no display server.
type Registry struct {
	cfg     RegistryConfig
	ddc     DDC
	conns   Connectors
	outputs Outputs
}

// NewRegistry creates a Registry.
func NewRegistry(cfg RegistryConfig, ddc DDC, conns Connectors, outputs Outputs) *Registry {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.DevDir == "" {
		cfg.DevDir = "/dev"
	}
	if cfg.MaxBus <= 0 {
		cfg.MaxBus = DefaultMaxBus
	}
	return &Registry{cfg: cfg, ddc: ddc, conns: conns, outputs: outputs}
}

// snapshot is the per-pass view of connectors and outputs.
type snapshot struct {
	connectors []drm.Connector
	outputs    []xrandr.Output
	claimed    map[string]bool
}

func (r *Registry) snapshot(ctx context.Context) *snapshot {
	s := &snapshot{claimed: make(map[string]bool)}
	if r.conns != nil {
		conns, err := r.conns.Connectors()
		if err != nil {
			log.Debug().Err(err).Msg("listing drm connectors")
		}
		s.connectors = conns
	}
	if r.outputs != nil {
		outs, err := r.outputs.Outputs(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("listing display-server outputs")
		}
		s.outputs = outs
	}
	return s
}

// Discover scans buses 0..MaxBus one at a time and returns every display
// that has identity, DDC support or a fallback output. Per-bus failures are
// logged and skipped. The only error is ctx's, returned with the displays
// found so far.
func (r *Registry) Discover(ctx context.Context) ([]Info, error) {
	snap := r.snapshot(ctx)

	var found []Info
	for bus := 0; bus <= r.cfg.MaxBus; bus++ {
		if err := ctx.Err(); err != nil {
			return found, fmt.Errorf("discovery: %w", err)
		}
		d, ok := r.probeBus(ctx, bus, snap)
		if !ok {
			continue
		}
		if d.HasConnector() {
			snap.claimed[d.Connector.Raw] = true
		}
		found = append(found, d)
	}

	found = r.addUnclaimed(found, snap)

	log.Debug().Int("displays", len(found)).Msg("discovery finished")
	return found, nil
}

func (r *Registry) probeBus(ctx context.Context, bus int, snap *snapshot) (Info, bool) {
	path := filepath.Join(r.cfg.DevDir, fmt.Sprintf("i2c-%d", bus))
	if ok, err := afero.Exists(r.cfg.Fs, path); err != nil || !ok {
		return Info{}, false
	}
	logger := log.With().Int("bus", bus).Logger()

	d := Info{Bus: bus, Adapter: drm.UnknownAdapter}
	if r.ddc != nil {
		if _, _, err := r.ddc.Brightness(ctx, bus); err != nil {
			logger.Debug().Err(err).Msg("ddc probe failed")
		} else {
			d.SupportsDDC = true
		}
	}

	var busEDID []byte
	if r.cfg.ReadBusEDID && r.ddc != nil {
		b, err := r.ddc.ReadEDID(ctx, bus)
		switch {
		case err != nil:
			logger.Debug().Err(err).Msg("reading bus edid")
		case len(b) >= edid.BlockSize:
			busEDID = b
		}
	}

	conn, source, hasConn := correlate.BusConnector(bus, busEDID, snap.connectors, r.cfg.Static)
	if hasConn {
		r.attach(&d, conn, source, busEDID, snap)
		logger.Debug().Str("connector", conn.Name.Raw).Str("source", string(source)).Msg("bus mapped")
	} else {
		d.setIdentity(busEDID)
		if len(busEDID) > 0 {
			d.OutputMatch = correlate.Resolve(d.Connector, busEDID, snap.outputs)
			d.Output = d.OutputMatch.Output
		}
		d.Preferred = d.defaultMethod()
	}
	if d.Output != "" && !d.OutputMatch.Confirmed() {
		logger.Debug().Err(d.OutputMatch.Err).Str("output", d.Output).Msg("output not confirmed by edid")
	}

	if d.Identity == nil && !d.SupportsDDC && d.Output == "" {
		logger.Debug().Msg("no identity, ddc or output; dropped")
		return Info{}, false
	}
	return d, true
}

// attach ties d to connector c and fills in port, adapter, identity, output
// and preferred method. The connector EDID wins over busEDID for output
// matching.
func (r *Registry) attach(d *Info, c drm.Connector, source correlate.BusSource, busEDID []byte, snap *snapshot) {
	d.Connector = c.Name
	d.BusSource = source
	d.Port = c.Name.Label()
	d.Adapter = r.adapterName(c.Name.Card)

	connEDID := busEDID
	if len(c.EDID) >= edid.BlockSize {
		connEDID = c.EDID
	}
	d.setIdentity(busEDID, connEDID)
	d.OutputMatch = correlate.Resolve(d.Connector, connEDID, snap.outputs)
	d.Output = d.OutputMatch.Output
	d.Preferred = d.defaultMethod()
}

// addUnclaimed handles connected connectors no bus claimed. Built-in panels
// become bus-less displays. An external connector may belong to a DDC bus
// whose EDID could not be read, so external connectors are only listed when
// no such bus remains. One unmapped bus and one external connector are
// paired.
func (r *Registry) addUnclaimed(found []Info, snap *snapshot) []Info {
	var unmapped []int
	for i := range found {
		if found[i].SupportsDDC && !found[i].HasConnector() {
			unmapped = append(unmapped, i)
		}
	}

	var external []drm.Connector
	for _, c := range snap.connectors {
		if !c.Connected() || snap.claimed[c.Name.Raw] {
			continue
		}
		if !c.Name.Internal() {
			external = append(external, c)
			continue
		}
		if d, ok := r.fromConnector(c, snap); ok {
			found = append(found, d)
		}
	}

	switch {
	case len(external) == 0:
	case len(unmapped) == 0:
		for _, c := range external {
			if d, ok := r.fromConnector(c, snap); ok {
				found = append(found, d)
			}
		}
	case len(unmapped) == 1 && len(external) == 1:
		d := &found[unmapped[0]]
		r.attach(d, external[0], correlate.BusFromElimination, nil, snap)
		snap.claimed[external[0].Name.Raw] = true
		log.Debug().Int("bus", d.Bus).Str("connector", d.Connector.Raw).Msg("bus paired by elimination")
	default:
		log.Debug().Int("buses", len(unmapped)).Int("connectors", len(external)).
			Msg("unmapped ddc buses left, external connectors not listed")
	}
	return found
}

// fromConnector builds a bus-less display for a connected connector that no
// bus claimed, such as a laptop panel. Only display-server control is
// possible, so it is kept only when an output was found in the snapshot or
// its EDID decodes.
func (r *Registry) fromConnector(c drm.Connector, snap *snapshot) (Info, bool) {
	d := Info{
		Bus:       -1,
		Connector: c.Name,
		Port:      c.Name.Label(),
		Adapter:   r.adapterName(c.Name.Card),
	}
	d.setIdentity(nil, c.EDID)
	d.OutputMatch = correlate.Resolve(c.Name, c.EDID, snap.outputs)
	if d.OutputMatch.Confirmed() || hasOutput(snap.outputs, d.OutputMatch.Output) {
		d.Output = d.OutputMatch.Output
	}
	d.Preferred = d.defaultMethod()

	if d.Identity == nil && d.Output == "" {
		return Info{}, false
	}
	return d, true
}

func (d *Info) setIdentity(candidates ...[]byte) {
	for _, b := range candidates {
		if len(b) < edid.BlockSize {
			continue
		}
		id, err := edid.Decode(b)
		if err != nil {
			log.Debug().Err(err).Int("bus", d.Bus).Msg("ignoring edid")
			continue
		}
		d.Identity = id
		d.EDID = b
		return
	}
}

func (d *Info) defaultMethod() Method {
	switch {
	case d.Available(MethodDDC):
		return MethodDDC
	case d.Available(MethodXrandr):
		return MethodXrandr
	default:
		return MethodNone
	}
}

func (r *Registry) adapterName(card int) string {
	if r.conns == nil || card < 0 {
		return drm.UnknownAdapter
	}
	a := r.conns.Adapter(card)
	if r.cfg.Namer == nil {
		return drm.VendorName(a.VendorID)
	}
	return r.cfg.Namer.Name(a)
}

func hasOutput(outputs []xrandr.Output, name string) bool {
	if name == "" {
		return false
	}
	for _, o := range outputs {
		if o.Name == name {
			return true
		}
	}
	return false
}
