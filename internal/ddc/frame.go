package ddc

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Bus addresses and framing bytes of the DDC/CI sub-protocol.
const (
	DDCAddr  uint16 = 0x37
	EDIDAddr uint16 = 0x50

	hostAddr     byte = 0x51
	checksumSeed byte = 0x6E // virtual host address used for the checksum
	replyAddr    byte = 0x6E

	opGetVCP          byte = 0x01
	opSetVCP          byte = 0x03
	opCapabilities    byte = 0xF3
	getVCPReplyLength      = 12
	capsReplyLength        = 256
)

// Feature is the value pair returned by a Get VCP Feature reply.
type Feature struct {
	Current uint16
	Max     uint16
}

// Checksum folds request bytes with XOR, seeded with 0x6E.
func Checksum(frame []byte) byte {
	sum := checksumSeed
	for _, b := range frame {
		sum ^= b
	}
	return sum
}

func withChecksum(frame ...byte) []byte {
	return append(frame, Checksum(frame))
}

// EncodeGetVCP builds a Get VCP Feature request.
func EncodeGetVCP(code byte) []byte {
	return withChecksum(hostAddr, 0x02, opGetVCP, code)
}

// EncodeSetVCP builds a Set VCP Feature request. Only the low byte of the
// value is sent; controls touched here fit in 8 bits.
func EncodeSetVCP(code byte, value uint16) []byte {
	return withChecksum(hostAddr, 0x04, opSetVCP, code, 0x00, byte(value))
}

// EncodeCapabilitiesRequest builds a Capabilities Request.
func EncodeCapabilitiesRequest() []byte {
	return withChecksum(hostAddr, 0x01, opCapabilities)
}

// DecodeGetVCPReply parses a 12-byte Get VCP Feature reply for code.
// Only the low byte of the current value is kept.
func DecodeGetVCPReply(code byte, buf []byte) (Feature, error) {
	if len(buf) < 10 {
		return Feature{}, fmt.Errorf("%w: short reply (%d bytes)", ErrProtocolMismatch, len(buf))
	}
	if buf[4] != code {
		return Feature{}, &MismatchError{Field: "vcp code", Want: code, Got: buf[4]}
	}
	return Feature{
		Current: binary.BigEndian.Uint16(buf[8:10]) & 0xFF,
		Max:     binary.BigEndian.Uint16(buf[6:8]),
	}, nil
}

// DecodeCapabilitiesReply extracts the capabilities string from a single
// reply buffer: header 0x6E, declared length at byte 1, payload from offset
// 3 up to the byte before the checksum.
func DecodeCapabilitiesReply(buf []byte) (string, error) {
	if len(buf) < 4 {
		return "", fmt.Errorf("%w: short reply (%d bytes)", ErrProtocolMismatch, len(buf))
	}
	if buf[0] != replyAddr {
		return "", &MismatchError{Field: "reply header", Want: replyAddr, Got: buf[0]}
	}

	// The high bit of the length byte is a protocol flag, not part of the length.
	n := int(buf[1] & 0x7F)
	end := min(3+n-1, len(buf)-1)
	if end <= 3 {
		return "", ErrCorruptCapabilities
	}

	caps := CleanCapabilities(buf[3:end])
	if caps == "" {
		return "", ErrCorruptCapabilities
	}
	return caps, nil
}

// CleanCapabilities keeps printable ASCII, stops at the first NUL and trims
// surrounding space. It is idempotent on clean input.
func CleanCapabilities(raw []byte) string {
	var sb strings.Builder
	for _, b := range raw {
		if b == 0x00 {
			break
		}
		if b >= 0x20 && b <= 0x7E {
			sb.WriteByte(b)
		}
	}
	return strings.TrimSpace(sb.String())
}
