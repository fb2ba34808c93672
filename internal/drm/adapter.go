package drm

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// UnknownAdapter names the bucket for displays without a connector.
const UnknownAdapter = "Unknown GPU"

//go:embed pciids.csv
var builtinPCIIDs []byte

// Adapter is a graphics card as seen through card<N>/device.
type Adapter struct {
	Card     int
	VendorID string // "0x10de"
	DeviceID string // "0x2504"
}

func (a Adapter) key() string {
	return a.VendorID + ":" + a.DeviceID
}

// PCIEntry is one row of a PCI ID to marketing name table.
type PCIEntry struct {
	VendorID string `csv:"vendor_id"`
	DeviceID string `csv:"device_id"`
	Model    string `csv:"model"`
}

// Namer turns adapter PCI IDs into display names.
type Namer struct {
	models map[string]string // vendor:device -> model
	lspci  map[string]string // vendor:device -> full name from lspci
}

// NewNamer returns a Namer loaded with the built-in table.
func NewNamer() (*Namer, error) {
	n := &Namer{
		models: make(map[string]string),
		lspci:  make(map[string]string),
	}
	if err := n.load(bytes.NewReader(builtinPCIIDs)); err != nil {
		return nil, fmt.Errorf("built-in pci table: %w", err)
	}
	return n, nil
}

// LoadCSV merges an external vendor_id,device_id,model table over the
// built-in one.
func (n *Namer) LoadCSV(fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("open pci table: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to close pci table")
		}
	}()

	if err := n.load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (n *Namer) load(r io.Reader) error {
	var entries []PCIEntry
	if err := gocsv.Unmarshal(r, &entries); err != nil {
		return fmt.Errorf("parse pci table: %w", err)
	}
	for _, e := range entries {
		if e.VendorID == "" || e.DeviceID == "" || e.Model == "" {
			continue
		}
		a := Adapter{VendorID: normalizeID(e.VendorID), DeviceID: normalizeID(e.DeviceID)}
		n.models[a.key()] = strings.TrimSpace(e.Model)
	}
	return nil
}

func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if !strings.HasPrefix(id, "0x") {
		id = "0x" + id
	}
	return id
}

var (
	reLspciIDs   = regexp.MustCompile(`\[([0-9a-fA-F]{4}):([0-9a-fA-F]{4})\]`)
	reLspciModel = regexp.MustCompile(`\[([^\]]+)\]`)
)

// LoadLspci records the names `lspci -nn` gives to display controllers,
// keyed by their PCI IDs. Lines look like:
//
//	01:00.0 VGA compatible controller [0300]: NVIDIA Corporation GA106 [GeForce RTX 3060 Lite Hash Rate] [10de:2504] (rev a1)
func (n *Namer) LoadLspci(output string) {
	for line := range strings.Lines(output) {
		if !strings.Contains(line, "VGA compatible controller") &&
			!strings.Contains(line, "Display controller") &&
			!strings.Contains(line, "3D controller") {
			continue
		}
		_, desc, ok := strings.Cut(line, "]: ")
		if !ok {
			continue
		}
		ids := reLspciIDs.FindAllStringSubmatch(desc, -1)
		if len(ids) == 0 {
			continue
		}
		last := ids[len(ids)-1]
		a := Adapter{VendorID: normalizeID(last[1]), DeviceID: normalizeID(last[2])}

		var model string
		for _, m := range reLspciModel.FindAllStringSubmatch(desc, -1) {
			if reLspciIDs.MatchString(m[0]) || m[1] == "AMD/ATI" {
				continue
			}
			model = m[1]
		}
		if model == "" {
			continue
		}
		n.lspci[a.key()] = VendorName(a.VendorID) + " " + model
	}
}

// Name resolves the display name of a: lspci name, then table model, then
// a generic vendor name with the card index.
func (n *Namer) Name(a Adapter) string {
	if a.VendorID == "" || a.DeviceID == "" {
		return fmt.Sprintf("Card %d", a.Card)
	}
	if name, ok := n.lspci[a.key()]; ok {
		return name
	}
	vendor := VendorName(a.VendorID)
	if model, ok := n.models[a.key()]; ok {
		return vendor + " " + model
	}
	return fmt.Sprintf("%s Card %d", vendor, a.Card)
}

// VendorName maps a PCI vendor ID to a short name.
func VendorName(id string) string {
	switch normalizeID(id) {
	case "0x10de":
		return "NVIDIA"
	case "0x1002":
		return "AMD"
	case "0x8086":
		return "Intel"
	default:
		return UnknownAdapter
	}
}
