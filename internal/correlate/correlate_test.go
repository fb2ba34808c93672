package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightctl/internal/drm"
	"brightctl/internal/xrandr"
)

func block(product byte) []byte {
	b := make([]byte, 128)
	copy(b, []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x04, 0x72, product})
	return b
}

func name(t *testing.T, s string) drm.ConnectorName {
	t.Helper()
	n, err := drm.ParseConnectorName(s)
	require.NoError(t, err)
	return n
}

func TestResolve_EDIDMatch(t *testing.T) {
	t.Parallel()

	outputs := []xrandr.Output{
		{Name: "HDMI-0", EDID: block(2)},
		{Name: "DP-4", EDID: append(block(1), 0x02, 0x03)},
	}

	m := Resolve(name(t, "card1-DP-3"), block(1), outputs)
	assert.Equal(t, "DP-4", m.Output)
	assert.Equal(t, ConfidenceEDID, m.Confidence)
	assert.True(t, m.Confirmed())
	require.NoError(t, m.Err)
	assert.Equal(t, "DP-4 (edid)", m.String())
}

func TestResolve_Ambiguous(t *testing.T) {
	t.Parallel()

	outputs := []xrandr.Output{
		{Name: "DP-2", EDID: block(1)},
		{Name: "DP-4", EDID: block(1)},
	}

	m := Resolve(name(t, "card1-DP-3"), block(1), outputs)
	assert.Equal(t, ConfidenceAmbiguous, m.Confidence)
	assert.Equal(t, []string{"DP-2", "DP-4"}, m.Candidates)
	require.ErrorIs(t, m.Err, ErrAmbiguous)
	assert.False(t, m.Confirmed())
	assert.Contains(t, m.String(), "ambiguous")
}

func TestResolve_HeuristicFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		connector string
		edid      []byte
		want      string
	}{
		{connector: "card1-DP-3", edid: nil, want: "DP-3"},
		{connector: "card1-DP-3", edid: block(9), want: "DP-3"},
		{connector: "card0-HDMI-A-2", edid: nil, want: "HDMI-0"},
		{connector: "card0-DP-1", edid: make([]byte, 64), want: "DP-1"},
		{connector: "card0-eDP-1", edid: nil, want: "DP-1"},
	}
	outputs := []xrandr.Output{{Name: "DP-0", EDID: block(1)}}

	for _, tt := range tests {
		m := Resolve(name(t, tt.connector), tt.edid, outputs)
		assert.Equal(t, tt.want, m.Output, tt.connector)
		assert.Equal(t, ConfidenceHeuristic, m.Confidence, tt.connector)
		require.ErrorIs(t, m.Err, ErrUnavailable)
		assert.Equal(t, tt.want+" (heuristic)", m.String())
	}
}

func TestResolve_None(t *testing.T) {
	t.Parallel()

	m := Resolve(name(t, "card0-VGA-1"), nil, nil)
	assert.Equal(t, ConfidenceNone, m.Confidence)
	assert.Empty(t, m.Output)
	require.ErrorIs(t, m.Err, ErrUnavailable)
	assert.Equal(t, "no output", m.String())
}

func TestConfidenceString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "edid", ConfidenceEDID.String())
	assert.Equal(t, "heuristic", ConfidenceHeuristic.String())
	assert.Equal(t, "ambiguous", ConfidenceAmbiguous.String())
	assert.Equal(t, "none", ConfidenceNone.String())
}

func TestBusConnector(t *testing.T) {
	t.Parallel()

	connectors := []drm.Connector{
		{Name: name(t, "card1-DP-3"), Status: "connected", EDID: block(1), Bus: 5},
		{Name: name(t, "card1-HDMI-A-1"), Status: "connected", EDID: block(2), Bus: -1},
		{Name: name(t, "card1-DP-4"), Status: "disconnected", EDID: block(3), Bus: -1},
		{Name: name(t, "card1-DP-5"), Status: "connected", Bus: -1},
	}
	static := map[int]string{8: "card1-DP-5", 9: "card7-DP-1"}

	c, src, ok := BusConnector(5, nil, connectors, static)
	require.True(t, ok)
	assert.Equal(t, "card1-DP-3", c.Name.Raw)
	assert.Equal(t, BusFromLink, src)

	c, src, ok = BusConnector(6, block(2), connectors, static)
	require.True(t, ok)
	assert.Equal(t, "card1-HDMI-A-1", c.Name.Raw)
	assert.Equal(t, BusFromEDID, src)

	// Disconnected connectors keep a stale EDID and must not match.
	_, _, ok = BusConnector(7, block(3), connectors, static)
	assert.False(t, ok)

	c, src, ok = BusConnector(8, nil, connectors, static)
	require.True(t, ok)
	assert.Equal(t, "card1-DP-5", c.Name.Raw)
	assert.Equal(t, BusFromStatic, src)

	_, _, ok = BusConnector(9, nil, connectors, static)
	assert.False(t, ok)
}
