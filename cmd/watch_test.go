package cmd

import (
	"bytes"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"

	"brightctl/internal/display"
)

func TestIsBusEvent(t *testing.T) {
	t.Parallel()

	assert.True(t, isBusEvent(fsnotify.Event{Name: "/dev/i2c-4", Op: fsnotify.Create}))
	assert.True(t, isBusEvent(fsnotify.Event{Name: "/dev/i2c-4", Op: fsnotify.Remove}))
	assert.False(t, isBusEvent(fsnotify.Event{Name: "/dev/i2c-4", Op: fsnotify.Chmod}))
	assert.False(t, isBusEvent(fsnotify.Event{Name: "/dev/ttyUSB0", Op: fsnotify.Create}))
}

func TestPrintChanges(t *testing.T) {
	t.Parallel()

	prev := []display.Info{{Bus: 3, SupportsDDC: true}, {Bus: 4}}
	next := []display.Info{{Bus: 4}, {Bus: 6, SupportsDDC: true, Preferred: display.MethodDDC}}

	var buf bytes.Buffer
	printChanges(&buf, prev, next)
	assert.Equal(t,
		"- Display on bus 3 [i2c-3]\n+ Display on bus 6 [i2c-6] control=ddc\n",
		buf.String())

	added, removed := diffDisplays(next, next)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}
