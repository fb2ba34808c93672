package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// level is a brightness argument: "40", "40%", "+10" or "-10".
type level struct {
	value    int
	relative bool
}

func parseLevel(s string) (level, error) {
	str := strings.TrimSuffix(strings.TrimSpace(s), "%")
	if str == "" {
		return level{}, fmt.Errorf("empty brightness value")
	}

	rel := str[0] == '+' || str[0] == '-'
	n, err := strconv.Atoi(str)
	if err != nil {
		return level{}, fmt.Errorf("brightness %q: %w", s, err)
	}
	if n < -100 || n > 100 || (!rel && n < 0) {
		return level{}, fmt.Errorf("brightness %q out of range", s)
	}
	return level{value: n, relative: rel}, nil
}

// apply returns the target for a display currently at cur, clamped to 0..100.
func (l level) apply(cur int) int {
	v := l.value
	if l.relative {
		v += cur
	}
	return min(max(v, 0), 100)
}

func (l level) String() string {
	if l.relative {
		return fmt.Sprintf("%+d", l.value)
	}
	return strconv.Itoa(l.value)
}
