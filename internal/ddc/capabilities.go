package ddc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Capabilities is the parsed form of a monitor's capabilities string.
type Capabilities struct {
	Raw         string
	Protocol    string // prot(...)
	Type        string // type(...)
	Model       string // model(...)
	MCCSVersion string // mccs_ver(...)
	Commands    []byte // cmds(...)
	VCP         []byte // top-level codes of vcp(...), sorted
}

// Supports reports whether the monitor advertises a VCP code.
func (c *Capabilities) Supports(code byte) bool {
	if c == nil {
		return false
	}
	_, found := slices.BinarySearch(c.VCP, code)
	return found
}

// ParseCapabilities extracts the keyword(value) sections of a capabilities
// string. Unknown keywords are skipped and unbalanced parentheses are
// tolerated. Sub-lists after a vcp code are ignored.
func ParseCapabilities(s string) (*Capabilities, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrCorruptCapabilities
	}

	caps := &Capabilities{Raw: s}
	body := s
	if strings.HasPrefix(body, "(") {
		inner, _ := group(body, 0)
		body = inner
	}

	for i := 0; i < len(body); {
		open := strings.IndexByte(body[i:], '(')
		if open < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(body[i : i+open]))
		value, next := group(body, i+open)
		i = next

		switch key {
		case "prot":
			caps.Protocol = strings.TrimSpace(value)
		case "type":
			caps.Type = strings.TrimSpace(value)
		case "model":
			caps.Model = strings.TrimSpace(value)
		case "mccs_ver":
			caps.MCCSVersion = strings.TrimSpace(value)
		case "cmds":
			caps.Commands = hexCodes(value)
		case "vcp":
			caps.VCP = hexCodes(value)
		}
	}

	slices.Sort(caps.VCP)
	caps.VCP = slices.Compact(caps.VCP)
	return caps, nil
}

// group returns the text inside the parenthesis opened at s[open] and the
// index just past its matching close. A missing close runs to the end.
func group(s string, open int) (string, int) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], i + 1
			}
		}
	}
	return s[open+1:], len(s)
}

// hexCodes collects the two-digit hex tokens at depth zero of s.
func hexCodes(s string) []byte {
	var codes []byte
	depth := 0
	var tok strings.Builder

	flush := func() {
		if tok.Len() == 2 {
			if v, err := strconv.ParseUint(tok.String(), 16, 8); err == nil {
				codes = append(codes, byte(v))
			}
		}
		tok.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			flush()
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c == ' ' || c == '\t':
			flush()
		default:
			tok.WriteByte(c)
		}
	}
	flush()
	return codes
}

// String renders the parsed fields for diagnostics.
func (c *Capabilities) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "model=%q type=%q mccs=%q", c.Model, c.Type, c.MCCSVersion)
	sb.WriteString(" vcp=[")
	for i, code := range c.VCP {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", code)
	}
	sb.WriteByte(']')
	return sb.String()
}
