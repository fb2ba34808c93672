// Package edid decodes the parts of a monitor's EDID base block that
// brightctl needs to identify a display. It performs no I/O.
package edid

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

// BlockSize is the length of the EDID base block.
const BlockSize = 128

// ErrInvalid is returned for buffers that are too short or whose header
// bytes are wrong. Callers treat it as "no usable EDID".
var ErrInvalid = errors.New("edid: invalid or short block")

const (
	descriptorStart = 54
	descriptorEnd   = 126
	descriptorLen   = 18

	tagSerial = 0xFF
	tagName   = 0xFC
)

// Identity is the decoded identity of one monitor.
type Identity struct {
	Manufacturer string // PNP ID, e.g. "ACR"; empty if not three uppercase letters
	Model        string // monitor name descriptor (0xFC)
	Serial       string // serial descriptor (0xFF) or 8 hex digits from bytes 12..15
	Year         int    // manufacture year, 0 if absent
	Week         int    // manufacture week, 0 if absent
	Version      string // e.g. "1.4"
	WidthCM      int    // physical width, 0 if absent
	HeightCM     int    // physical height, 0 if absent
	AspectRatio  string // "16:9", "16:10", "4:3", "21:9" or "1.85:1"
	Width        int    // native horizontal resolution, 0 if absent
	Height       int    // native vertical resolution, 0 if absent
	Digital      bool   // video input definition bit 7
	Extensions   int    // number of extension blocks that follow
}

var vendorNames = map[string]string{
	"ACR": "Acer",
	"GSM": "LG",
	"SAM": "Samsung",
	"DEL": "Dell",
	"AUS": "ASUS",
	"BNQ": "BenQ",
	"AOC": "AOC",
	"HPN": "HP",
	"LEN": "Lenovo",
	"MSI": "MSI",
}

// Decode validates the header and extracts the identity fields from an EDID
// buffer of at least BlockSize bytes. Bytes past the base block are ignored.
func Decode(b []byte) (*Identity, error) {
	if len(b) < BlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalid, len(b))
	}
	if b[0] != 0x00 || b[1] != 0xFF || b[7] != 0x00 {
		return nil, fmt.Errorf("%w: header %02X %02X ... %02X", ErrInvalid, b[0], b[1], b[7])
	}

	id := &Identity{
		Manufacturer: manufacturer(b),
		Version:      fmt.Sprintf("%d.%d", b[18], b[19]),
		Digital:      b[20]&0x80 != 0,
		Extensions:   int(b[126]),
	}

	if b[17] > 0 {
		id.Year = int(b[17]) + 1990
	}
	if b[16] >= 1 && b[16] <= 54 {
		id.Week = int(b[16])
	}

	if b[21] > 0 && b[22] > 0 {
		id.WidthCM = int(b[21])
		id.HeightCM = int(b[22])
		id.AspectRatio = aspectRatio(float64(b[21]) / float64(b[22]))
	}

	// First detailed timing descriptor, pixel clock must be non-zero.
	if b[54] != 0 || b[55] != 0 {
		w := int(b[56]) | int(b[58]&0xF0)<<4
		h := int(b[59]) | int(b[61]&0xF0)<<4
		if w > 0 && h > 0 {
			id.Width, id.Height = w, h
		}
	}

	id.Model = descriptorText(b, tagName)
	id.Serial = descriptorText(b, tagSerial)
	if id.Serial == "" {
		id.Serial = fmt.Sprintf("%08X", binary.BigEndian.Uint32(b[12:16]))
	}

	return id, nil
}

// manufacturer unpacks the three 5-bit letters at bytes 8..9.
func manufacturer(b []byte) string {
	v := binary.BigEndian.Uint16(b[8:10])
	letters := []byte{
		byte(v>>10&0x1F) + 0x40,
		byte(v>>5&0x1F) + 0x40,
		byte(v&0x1F) + 0x40,
	}
	for _, c := range letters {
		if c < 'A' || c > 'Z' {
			return ""
		}
	}
	return string(letters)
}

func aspectRatio(r float64) string {
	buckets := []struct {
		name  string
		ratio float64
	}{
		{"16:9", 16.0 / 9.0},
		{"16:10", 16.0 / 10.0},
		{"4:3", 4.0 / 3.0},
		{"21:9", 21.0 / 9.0},
	}
	for _, bucket := range buckets {
		if math.Abs(r-bucket.ratio) < 0.1 {
			return bucket.name
		}
	}
	return fmt.Sprintf("%.2f:1", r)
}

// descriptorText returns the text of the first non-empty display descriptor
// carrying tag.
func descriptorText(b []byte, tag byte) string {
	for i := descriptorStart; i+descriptorLen <= descriptorEnd; i += descriptorLen {
		block := b[i : i+descriptorLen]
		if block[0] != 0 || block[1] != 0 || block[2] != 0 || block[3] != tag {
			continue
		}
		if text := cleanText(block[5:descriptorLen]); text != "" {
			return text
		}
	}
	return ""
}

func cleanText(raw []byte) string {
	if i := bytes.IndexAny(raw, "\x00\n"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}

// VendorName expands well-known PNP IDs, falling back to the raw code.
func (id *Identity) VendorName() string {
	if name, ok := vendorNames[id.Manufacturer]; ok {
		return name
	}
	return id.Manufacturer
}

// Resolution formats the native resolution, or "" when absent.
func (id *Identity) Resolution() string {
	if id.Width == 0 || id.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%d x %d", id.Width, id.Height)
}

// PhysicalSize formats the physical size, or "" when absent.
func (id *Identity) PhysicalSize() string {
	if id.WidthCM == 0 || id.HeightCM == 0 {
		return ""
	}
	return fmt.Sprintf("%d x %d cm", id.WidthCM, id.HeightCM)
}

// Equal reports whether two EDID buffers describe the same monitor: both
// hold a full base block and the first BlockSize bytes are identical.
func Equal(a, b []byte) bool {
	if len(a) < BlockSize || len(b) < BlockSize {
		return false
	}
	return bytes.Equal(a[:BlockSize], b[:BlockSize])
}

// Fingerprint is a short stable key built from the vendor, product and
// serial bytes of the base block.
func Fingerprint(b []byte) string {
	if len(b) < 16 {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(b[8:16]))
}

// ParseHex decodes a hex dump, ignoring whitespace between digits.
func ParseHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode edid hex: %w", err)
	}
	return out, nil
}

// Dump formats b as 16 bytes per line, for diagnostics.
func Dump(b []byte) string {
	var sb strings.Builder
	for off := 0; off < len(b); off += 16 {
		end := min(off+16, len(b))
		fmt.Fprintf(&sb, "%02x:", off)
		for _, c := range b[off:end] {
			fmt.Fprintf(&sb, " %02x", c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
