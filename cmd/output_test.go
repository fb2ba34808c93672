package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"brightctl/internal/display"
)

func testRows(t *testing.T) []row {
	t.Helper()
	displays := testDisplays(t)
	rows := []row{
		withSample(toRow(&displays[0]), display.Sample{Key: "i2c-3", Value: 55, Method: display.MethodXrandr}),
		withSample(toRow(&displays[1]), display.Sample{Key: "i2c-5", Err: errors.New("bus wedged")}),
	}
	return rows
}

func TestWriteRows_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, formatTable, testRows(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "BRIGHTNESS")
	assert.Contains(t, lines[1], "LG 27GL850")
	assert.Contains(t, lines[1], "HDMI-1 (none)")
	assert.True(t, strings.HasSuffix(lines[1], "55"))
	assert.Contains(t, lines[2], "error: bus wedged")
}

func TestWriteRows_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, formatJSON, testRows(t)))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "i2c-3", got[0]["key"])
	assert.InDelta(t, 55, got[0]["brightness"], 0)
	assert.Equal(t, "xrandr", got[0]["method"])
	assert.Equal(t, "xrandr", got[0]["methods"])
	assert.Equal(t, "ddc,xrandr", got[1]["methods"])
	assert.NotContains(t, got[1], "brightness")
	assert.Equal(t, "bus wedged", got[1]["error"])
}

func TestWriteRows_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, formatYAML, testRows(t)))

	var got []row
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Acer VG270U", got[1].Name)
	assert.True(t, got[1].DDC)
}

func TestWriteRows_CSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, formatCSV, testRows(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "key,name,bus,"))
	assert.True(t, strings.HasPrefix(lines[1], "i2c-3,LG 27GL850,3,card1-HDMI-A-1,"))
}

func TestWriteRows_UnknownFormat(t *testing.T) {
	t.Parallel()
	assert.Error(t, writeRows(&bytes.Buffer{}, "xml", nil))
}
