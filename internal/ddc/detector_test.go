package ddc

import (
	"errors"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightctl/internal/testing/mocks"
)

func newTestDetector(t *testing.T, files map[string]string, tools ...string) *Detector {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	exe := &mocks.MockExecutor{}
	found := map[string]bool{}
	for _, tool := range tools {
		found[tool] = true
	}
	for _, tool := range []string{"ddcutil", "xrandr"} {
		if found[tool] {
			exe.On("LookPath", tool).Return("/usr/bin/"+tool, nil)
		} else {
			exe.On("LookPath", tool).Return("", errors.New("executable file not found in $PATH"))
		}
	}

	d := NewDetector(fs, exe, "/dev")
	d.osType = OSLinux
	return d
}

func TestDetector_OSRelease(t *testing.T) {
	t.Parallel()

	d := newTestDetector(t, map[string]string{
		"/etc/os-release": `# comment
NAME="Ubuntu"
VERSION="22.04.3 LTS (Jammy Jellyfish)"
ID=ubuntu
VERSION_ID="22.04"
PRETTY_NAME="Ubuntu 22.04.3 LTS"
UBUNTU_CODENAME=jammy
`,
	})

	info := &LinuxInfo{}
	require.NoError(t, d.getDistributionInfo(info))
	assert.Equal(t, "Ubuntu", info.Name)
	assert.Equal(t, "ubuntu", info.ID)
	assert.Equal(t, "22.04", info.VersionID)
	assert.Equal(t, "Ubuntu 22.04.3 LTS", info.PrettyName)
	assert.Equal(t, "jammy", info.Codename)
}

func TestDetector_LSBFallback(t *testing.T) {
	t.Parallel()

	d := newTestDetector(t, map[string]string{
		"/etc/lsb-release": "DISTRIB_ID=LinuxMint\nDISTRIB_RELEASE=21.2\nDISTRIB_CODENAME=victoria\n",
	})

	info := &LinuxInfo{}
	require.NoError(t, d.getDistributionInfo(info))
	assert.Equal(t, "linuxmint", info.ID)
	assert.Equal(t, "21.2", info.Version)
	assert.Equal(t, "victoria", info.Codename)
}

func TestDetector_DistributionFile(t *testing.T) {
	t.Parallel()

	d := newTestDetector(t, map[string]string{
		"/etc/fedora-release": "Fedora release 39 (Thirty Nine)\n",
		"/etc/debian_version": "12.4\n",
	})

	info := &LinuxInfo{}
	require.NoError(t, d.getDistributionInfo(info))
	assert.Equal(t, "fedora", info.ID)
	assert.Equal(t, "Fedora", info.Name)
	assert.Equal(t, "Fedora release 39 (Thirty Nine)", info.PrettyName)
	assert.Empty(t, info.Version)
}

func TestDetector_NoDistribution(t *testing.T) {
	t.Parallel()

	d := newTestDetector(t, nil)
	require.Error(t, d.getDistributionInfo(&LinuxInfo{}))
}

func TestDetector_KernelInfo(t *testing.T) {
	t.Parallel()

	if runtime.GOOS != "linux" {
		t.Skip("uname fields differ off linux")
	}
	info := &LinuxInfo{}
	require.NoError(t, kernelInfo(info))
	assert.Equal(t, "Linux", info.KernelName)
	assert.NotEmpty(t, info.KernelRelease)
}

func TestDetector_CheckSupport(t *testing.T) {
	t.Parallel()

	t.Run("i2c nodes", func(t *testing.T) {
		t.Parallel()

		d := newTestDetector(t, map[string]string{"/dev/i2c-3": "", "/dev/i2c-1": ""}, "xrandr")
		s := d.CheckSupport()
		assert.Equal(t, []string{"/dev/i2c-1", "/dev/i2c-3"}, s.I2CNodes)
		assert.Equal(t, BackendI2C, s.Backend)
		assert.True(t, s.Tools["xrandr"])
		assert.False(t, s.Tools["ddcutil"])
	})

	t.Run("ddcutil only", func(t *testing.T) {
		t.Parallel()

		d := newTestDetector(t, nil, "ddcutil")
		got, err := d.SelectBackend(BackendAuto)
		require.NoError(t, err)
		assert.Equal(t, BackendDdcutil, got)
	})

	t.Run("nothing", func(t *testing.T) {
		t.Parallel()

		d := newTestDetector(t, nil)
		_, err := d.SelectBackend(BackendAuto)
		require.ErrorIs(t, err, ErrNoBackend)
	})

	t.Run("explicit", func(t *testing.T) {
		t.Parallel()

		d := newTestDetector(t, nil)
		got, err := d.SelectBackend(BackendDdcutil)
		require.NoError(t, err)
		assert.Equal(t, BackendDdcutil, got)

		_, err = d.SelectBackend("serial")
		require.Error(t, err)
	})
}

func TestExtractVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8.5", extractVersion("Red Hat Enterprise Linux release 8.5 (Ootpa)"))
	assert.Equal(t, "3.19.1", extractVersion("3.19.1"))
	assert.Empty(t, extractVersion("Arch Linux"))
}

func TestDetector_GetOSType(t *testing.T) {
	t.Parallel()

	d := NewDetector(afero.NewMemMapFs(), &mocks.MockExecutor{}, "")
	assert.Equal(t, OSType(runtime.GOOS), d.GetOSType())

	d.osType = OSLinux
	assert.Equal(t, OSLinux, d.GetOSType())
}
