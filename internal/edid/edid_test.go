package edid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseBlock returns a minimal valid EDID base block for "ACR".
func baseBlock() []byte {
	b := make([]byte, BlockSize)
	copy(b, []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})
	b[8], b[9] = 0x04, 0x72 // ACR
	b[18], b[19] = 1, 4
	return b
}

func withDescriptor(b []byte, offset int, tag byte, text string) []byte {
	block := b[offset : offset+18]
	block[0], block[1], block[2], block[3] = 0, 0, 0, tag
	payload := []byte(text)
	for i := 5; i < 18; i++ {
		block[i] = ' '
	}
	copy(block[5:], payload)
	return b
}

func TestDecode_AcerNameDescriptor(t *testing.T) {
	t.Parallel()

	b := withDescriptor(baseBlock(), 54, tagName, "VG270U      ")

	id, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "ACR", id.Manufacturer)
	assert.Equal(t, "Acer", id.VendorName())
	assert.Equal(t, "VG270U", id.Model)
	assert.Equal(t, "1.4", id.Version)
}

func TestDecode_InvalidHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{name: "first byte", mutate: func(b []byte) { b[0] = 0x01 }},
		{name: "second byte", mutate: func(b []byte) { b[1] = 0x00 }},
		{name: "eighth byte", mutate: func(b []byte) { b[7] = 0xFF }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := baseBlock()
			tt.mutate(b)
			_, err := Decode(b)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDecode_Short(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 8, 127} {
		_, err := Decode(baseBlock()[:n])
		require.ErrorIs(t, err, ErrInvalid, "len %d", n)
	}
}

func TestDecode_Manufacturer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hi   byte
		lo   byte
		want string
	}{
		{name: "GSM", hi: 0x1E, lo: 0x6D, want: "GSM"},
		{name: "DEL", hi: 0x10, lo: 0xAC, want: "DEL"},
		{name: "zero letter", hi: 0x00, lo: 0x00, want: ""},
		{name: "out of range letter", hi: 0x7F, lo: 0xFF, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := baseBlock()
			b[8], b[9] = tt.hi, tt.lo
			id, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.Manufacturer)
		})
	}
}

func TestDecode_DateAndSize(t *testing.T) {
	t.Parallel()

	b := baseBlock()
	b[16], b[17] = 12, 31
	b[21], b[22] = 60, 34

	id, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 2021, id.Year)
	assert.Equal(t, 12, id.Week)
	assert.Equal(t, 60, id.WidthCM)
	assert.Equal(t, 34, id.HeightCM)
	assert.Equal(t, "16:9", id.AspectRatio)
	assert.Equal(t, "60 x 34 cm", id.PhysicalSize())
}

func TestDecode_AbsentFields(t *testing.T) {
	t.Parallel()

	b := baseBlock()
	b[16] = 55 // out of range week
	b[21] = 60 // height missing

	id, err := Decode(b)
	require.NoError(t, err)
	assert.Zero(t, id.Year)
	assert.Zero(t, id.Week)
	assert.Zero(t, id.WidthCM)
	assert.Empty(t, id.AspectRatio)
	assert.Empty(t, id.PhysicalSize())
	assert.Empty(t, id.Resolution())
}

func TestAspectRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w, h int
		want string
	}{
		{60, 34, "16:9"},
		{52, 32, "16:10"},
		{40, 30, "4:3"},
		{80, 34, "21:9"},
		{50, 50, "1.00:1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, aspectRatio(float64(tt.w)/float64(tt.h)), "%dx%d", tt.w, tt.h)
	}
}

func TestDecode_NativeResolution(t *testing.T) {
	t.Parallel()

	b := baseBlock()
	// 2560x1440 detailed timing descriptor.
	copy(b[54:], []byte{0x56, 0x5E, 0x00, 0xA0, 0xA0, 0xA0, 0x29, 0x50})

	id, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 2560, id.Width)
	assert.Equal(t, 1440, id.Height)
	assert.Equal(t, "2560 x 1440", id.Resolution())
}

func TestDecode_Serial(t *testing.T) {
	t.Parallel()

	t.Run("descriptor", func(t *testing.T) {
		t.Parallel()

		b := withDescriptor(baseBlock(), 72, tagSerial, "TGHAA0014200\n")
		id, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, "TGHAA0014200", id.Serial)
	})

	t.Run("packed fallback", func(t *testing.T) {
		t.Parallel()

		b := baseBlock()
		copy(b[12:16], []byte{0x12, 0x34, 0xAB, 0xCD})
		id, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, "1234ABCD", id.Serial)
	})
}

func TestDecode_FirstNonEmptyDescriptorWins(t *testing.T) {
	t.Parallel()

	b := baseBlock()
	b = withDescriptor(b, 72, tagName, "")
	b = withDescriptor(b, 90, tagName, "DELL U2720Q\n")
	b = withDescriptor(b, 108, tagName, "SECOND")

	id, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "DELL U2720Q", id.Model)
}

func TestDecode_IgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	b := withDescriptor(baseBlock(), 54, tagName, "VG270U")
	long := append(append([]byte{}, b...), make([]byte, 128)...)

	a, err := Decode(b)
	require.NoError(t, err)
	c, err := Decode(long)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := baseBlock()
	b := append(append([]byte{}, a...), 0x01, 0x02)
	assert.True(t, Equal(a, b))

	c := baseBlock()
	c[100] = 0x42
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a[:127], a[:127]))
}

func TestFingerprintAndHex(t *testing.T) {
	t.Parallel()

	b := baseBlock()
	assert.Equal(t, "0472000000000000", Fingerprint(b))
	assert.Empty(t, Fingerprint(b[:4]))

	parsed, err := ParseHex("00ffffff ffffff00\n0472")
	require.NoError(t, err)
	assert.Equal(t, b[:10], parsed)

	_, err = ParseHex("zz")
	require.Error(t, err)

	assert.Contains(t, Dump(b[:16]), "00: 00 ff ff ff ff ff ff 00 04 72")
}
