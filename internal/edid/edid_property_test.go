package edid

import (
	"errors"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

// blockGen generates base blocks with a valid header and random content.
func blockGen() *rapid.Generator[[]byte] {
	return rapid.Custom(func(t *rapid.T) []byte {
		b := rapid.SliceOfN(rapid.Byte(), BlockSize, BlockSize*2).Draw(t, "bytes")
		b[0], b[1], b[7] = 0x00, 0xFF, 0x00
		return b
	})
}

func TestPropertyDecodeDeterministic(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		b := blockGen().Draw(t, "edid")

		first, err := Decode(b)
		if err != nil {
			t.Fatalf("valid header rejected: %v", err)
		}
		second, err := Decode(append([]byte{}, b...))
		if err != nil {
			t.Fatalf("second decode failed: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("decode not deterministic: %+v vs %+v", first, second)
		}
	})
}

func TestPropertyDecodeNeverPanics(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, BlockSize*2).Draw(t, "bytes")

		id, err := Decode(b)
		valid := len(b) >= BlockSize && b[0] == 0x00 && b[1] == 0xFF && b[7] == 0x00
		if valid && err != nil {
			t.Fatalf("valid block rejected: %v", err)
		}
		if !valid && !errors.Is(err, ErrInvalid) {
			t.Fatalf("invalid block accepted: %+v", id)
		}
	})
}

func TestPropertyEqualFirstBlockOnly(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a := blockGen().Draw(t, "a")
		b := append([]byte{}, a[:BlockSize]...)
		b = append(b, rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "tail")...)
		if !Equal(a, b) {
			t.Fatal("identical base blocks judged different")
		}

		i := rapid.IntRange(0, BlockSize-1).Draw(t, "index")
		b[i] ^= 0xFF
		if Equal(a, b) {
			t.Fatalf("blocks differing at %d judged equal", i)
		}
	})
}
