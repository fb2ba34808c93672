package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightctl/internal/display"
	"brightctl/internal/drm"
	"brightctl/internal/edid"
)

func testDisplays(t *testing.T) []display.Info {
	t.Helper()
	dp, err := drm.ParseConnectorName("card1-DP-3")
	require.NoError(t, err)
	hdmi, err := drm.ParseConnectorName("card1-HDMI-A-1")
	require.NoError(t, err)

	return []display.Info{
		{Bus: 3, Connector: hdmi, Output: "HDMI-1", Identity: &edid.Identity{Manufacturer: "GSM", Model: "27GL850"}},
		{Bus: 5, Connector: dp, Output: "DP-4", SupportsDDC: true, Identity: &edid.Identity{Manufacturer: "ACR", Model: "VG270U"}},
		{Bus: -1, Output: "eDP-1"},
	}
}

func TestSelectDisplay(t *testing.T) {
	t.Parallel()

	displays := testDisplays(t)
	tests := []struct {
		sel     string
		wantKey string
	}{
		{"5", "i2c-5"},
		{"i2c-3", "i2c-3"},
		{"card1-DP-3", "i2c-5"},
		{"DP-3", "i2c-5"},
		{"dp-4", "i2c-5"},
		{"HDMI-1", "i2c-3"},
		{"eDP-1", "output-eDP-1"},
		{"vg270", "i2c-5"},
		{"LG 27GL850", "i2c-3"},
		{"Acer VG27OU", "i2c-5"},
	}
	for _, tt := range tests {
		d, err := selectDisplay(displays, tt.sel)
		require.NoError(t, err, tt.sel)
		assert.Equal(t, tt.wantKey, d.Key(), tt.sel)
	}
}

func TestSelectDisplay_Errors(t *testing.T) {
	t.Parallel()

	displays := testDisplays(t)

	_, err := selectDisplay(displays, "9")
	require.ErrorIs(t, err, errNoDisplay)
	assert.Contains(t, err.Error(), "i2c-3, i2c-5, output-eDP-1")

	_, err = selectDisplay(displays, "samsung odyssey")
	require.ErrorIs(t, err, errNoDisplay)

	_, err = selectDisplay(displays, "e")
	require.ErrorIs(t, err, errAmbiguousSelect)

	_, err = selectDisplay(displays, " ")
	require.ErrorIs(t, err, errNoDisplay)
}

func TestSelectDisplays_All(t *testing.T) {
	t.Parallel()

	displays := testDisplays(t)
	got, err := selectDisplays(displays, "ALL")
	require.NoError(t, err)
	require.Len(t, got, 3)
	got[0].Output = "changed"
	assert.Equal(t, "changed", displays[0].Output, "selection points into the slice")

	_, err = selectDisplays(nil, "all")
	assert.ErrorIs(t, err, errNoDisplay)
}
