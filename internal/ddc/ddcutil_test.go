package ddc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"brightctl/internal/testing/mocks"
)

const detectTerse = `Display 1
   I2C bus:  /dev/i2c-3
   Monitor:  ACR:VG270U:TGHAA0014200

Invalid display
   I2C bus:  /dev/i2c-5
   Monitor:  DEL:DELL U2720Q:

Display 2
   I2C bus:  /dev/i2c-6
   Mfg: GSM Model: LG ULTRAGEAR

Display 3
`

func TestParseDetectOutput(t *testing.T) {
	t.Parallel()

	got := parseDetectOutput(detectTerse)
	assert.Equal(t, []DetectedDisplay{
		{Number: 1, Bus: 3, Mfg: "ACR", Model: "VG270U", Serial: "TGHAA0014200"},
		{Number: 2, Bus: 6, Mfg: "GSM", Model: "LG ULTRAGEAR"},
		{Number: 3, Bus: -1},
	}, got)
	assert.Equal(t, "display 1 (ACR VG270U) on bus 3", got[0].String())
	assert.Equal(t, "display 3 (unknown) on bus -1", got[2].String())
}

func TestDetectDdcutil(t *testing.T) {
	t.Parallel()

	exe := &mocks.MockExecutor{}
	exe.On("Output", mock.Anything, "ddcutil", []string{"detect", "--terse"}).
		Return([]byte(detectTerse), nil)

	got, err := DetectDdcutil(context.Background(), exe)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	exe.AssertExpectations(t)
}

func TestDdcutil_GetFeature(t *testing.T) {
	t.Parallel()

	exe := &mocks.MockExecutor{}
	exe.On("Output", mock.Anything, "ddcutil", []string{"getvcp", "0x10", "--bus", "3"}).
		Return([]byte("VCP code 0x10 (Brightness                    ): current value =    50, max value =   100\n"), nil)

	f, err := NewDdcutil(exe, 3).GetFeature(context.Background(), VCPBrightness)
	require.NoError(t, err)
	assert.Equal(t, Feature{Current: 50, Max: 100}, f)
	exe.AssertExpectations(t)
}

func TestDdcutil_GetFeatureByDisplay(t *testing.T) {
	t.Parallel()

	exe := &mocks.MockExecutor{}
	exe.On("Output", mock.Anything, "ddcutil", []string{"getvcp", "0x60", "--display", "2"}).
		Return([]byte("VCP code 0x60 (Input Source): current value = 17\n"), nil)

	d := NewDdcutil(exe, -1)
	d.Display = 2
	f, err := d.GetFeature(context.Background(), VCPInputSource)
	require.NoError(t, err)
	assert.Equal(t, uint16(17), f.Current)
	assert.Zero(t, f.Max)
	assert.Equal(t, "ddcutil:display=2", d.String())
}

func TestDdcutil_GetFeatureErrors(t *testing.T) {
	t.Parallel()

	exe := &mocks.MockExecutor{}
	exe.On("Output", mock.Anything, "ddcutil", []string{"getvcp", "0x10", "--bus", "4"}).
		Return([]byte("Display not found\n"), nil)
	exe.On("Output", mock.Anything, "ddcutil", []string{"getvcp", "0x10", "--bus", "5"}).
		Return(nil, errors.New("exit status 1"))

	_, err := NewDdcutil(exe, 4).GetFeature(context.Background(), VCPBrightness)
	require.ErrorIs(t, err, ErrHelperOutput)

	_, err = NewDdcutil(exe, 5).GetFeature(context.Background(), VCPBrightness)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ddcutil getvcp")
}

func TestDdcutil_SetFeature(t *testing.T) {
	t.Parallel()

	exe := &mocks.MockExecutor{}
	exe.On("Run", mock.Anything, "ddcutil", []string{"setvcp", "0x10", "70", "--bus", "3"}).Return(nil).Once()
	exe.On("Run", mock.Anything, "ddcutil", []string{"setvcp", "0x10", "80", "--bus", "3"}).
		Return(errors.New("exit status 1")).Once()

	d := NewDdcutil(exe, 3)
	require.NoError(t, d.SetFeature(context.Background(), VCPBrightness, 70))
	require.Error(t, d.SetFeature(context.Background(), VCPBrightness, 80))
	exe.AssertExpectations(t)
}

func TestDdcutil_Capabilities(t *testing.T) {
	t.Parallel()

	out := "Model: VG270U P\nMCCS version: 2.1\n" +
		"Unparsed capabilities string: (prot(monitor)type(LCD)vcp(10 12 60(0F 11)))\n" +
		"VCP Features:\n   Feature: 10 (Brightness)\n"

	exe := &mocks.MockExecutor{}
	exe.On("Output", mock.Anything, "ddcutil", []string{"capabilities", "--verbose", "--bus", "3"}).
		Return([]byte(out), nil)
	exe.On("Output", mock.Anything, "ddcutil", []string{"capabilities", "--verbose", "--bus", "4"}).
		Return([]byte("No monitor detected\n"), nil)

	caps, err := NewDdcutil(exe, 3).Capabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "(prot(monitor)type(LCD)vcp(10 12 60(0F 11)))", caps)

	_, err = NewDdcutil(exe, 4).Capabilities(context.Background())
	require.ErrorIs(t, err, ErrHelperOutput)
}

func TestClient_WithDdcutilOpener(t *testing.T) {
	t.Parallel()

	exe := &mocks.MockExecutor{}
	exe.On("Output", mock.Anything, "ddcutil", []string{"getvcp", "0x10", "--bus", "8"}).
		Return([]byte("VCP code 0x10 (Brightness): current value = 33, max value = 100\n"), nil)

	c := NewClient(DdcutilOpener(exe))
	cur, maxValue, err := c.Brightness(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 33, cur)
	assert.Equal(t, 100, maxValue)
}
