package drm

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultRoot is where the kernel exposes DRM devices.
const DefaultRoot = "/sys/class/drm"

const edidBlockSize = 128

var reConnector = regexp.MustCompile(`^card\d+-.+-.+$`)

// Sysfs reads connectors and adapters below root on fs.
type Sysfs struct {
	fs   afero.Fs
	root string
}

// NewSysfs returns a reader rooted at root, or DefaultRoot when empty.
func NewSysfs(fs afero.Fs, root string) *Sysfs {
	if root == "" {
		root = DefaultRoot
	}
	return &Sysfs{fs: fs, root: root}
}

// Connectors lists every connector directory, sorted by name. Entries
// whose files cannot be read are still returned with what was readable.
func (s *Sysfs) Connectors() ([]Connector, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.root, err)
	}

	var out []Connector
	for _, e := range entries {
		if !reConnector.MatchString(e.Name()) {
			continue
		}
		name, err := ParseConnectorName(e.Name())
		if err != nil {
			continue
		}

		c := Connector{
			Name:    name,
			Status:  s.readString(e.Name(), "status"),
			Enabled: s.readString(e.Name(), "enabled") == "enabled",
			EDID:    s.ReadEDID(e.Name()),
			Bus:     s.ddcBus(e.Name()),
		}
		if c.Status == "" {
			c.Status = "unknown"
		}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b Connector) int {
		return strings.Compare(a.Name.Raw, b.Name.Raw)
	})
	return out, nil
}

// ReadEDID returns the connector's EDID attribute, or nil when it is
// missing or shorter than one block.
func (s *Sysfs) ReadEDID(connector string) []byte {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.root, connector, "edid"))
	if err != nil || len(b) < edidBlockSize {
		return nil
	}
	return b
}

// ddcBus follows <connector>/ddc/i2c-dev/i2c-N to the bus number.
func (s *Sysfs) ddcBus(connector string) int {
	entries, err := afero.ReadDir(s.fs, filepath.Join(s.root, connector, "ddc", "i2c-dev"))
	if err != nil {
		return -1
	}
	for _, e := range entries {
		if n, ok := strings.CutPrefix(e.Name(), "i2c-"); ok {
			if bus, err := strconv.Atoi(n); err == nil {
				return bus
			}
		}
	}
	return -1
}

// Adapter reads the PCI identity of card<N>.
func (s *Sysfs) Adapter(card int) Adapter {
	dev := filepath.Join(fmt.Sprintf("card%d", card), "device")
	a := Adapter{
		Card:     card,
		VendorID: strings.ToLower(s.readString(dev, "vendor")),
		DeviceID: strings.ToLower(s.readString(dev, "device")),
	}
	log.Debug().Int("card", card).Str("vendor", a.VendorID).Str("device", a.DeviceID).Msg("read adapter ids")
	return a
}

func (s *Sysfs) readString(dir, file string) string {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.root, dir, file))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
