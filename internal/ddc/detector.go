package ddc

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"brightctl/internal/command"
)

// ErrNoBackend is returned when neither /dev/i2c-N nor ddcutil is usable.
var ErrNoBackend = errors.New("ddc: no usable backend")

// OSType represents the operating system type.
type OSType string

const (
	OSLinux OSType = "linux"
)

// LinuxInfo contains detailed Linux distribution information.
type LinuxInfo struct {
	Name          string // Distribution name (e.g., "Ubuntu")
	Version       string // Version number (e.g., "20.04")
	ID            string // Distribution ID (e.g., "ubuntu")
	VersionID     string // Version ID (e.g., "20.04")
	PrettyName    string // Pretty name (e.g., "Ubuntu 20.04.3 LTS")
	Codename      string // Release codename (e.g., "focal")
	KernelName    string // Kernel name (e.g., "Linux")
	KernelRelease string // Kernel release (e.g., "5.4.0-88-generic")
	KernelVersion string // Kernel version
	Machine       string // Machine architecture (e.g., "x86_64")
}

// Support summarises what DDC/CI access the host offers.
type Support struct {
	I2CNodes      []string // existing /dev/i2c-N nodes
	I2CDevLoaded  bool     // i2c-dev kernel module present
	Tools         map[string]bool
	Backend       BackendKind // backend chosen for "auto"
	BackendReason string
}

// Detector inspects the host environment.
type Detector struct {
	fs     afero.Fs
	exec   command.Executor
	osType OSType
	devDir string
}

// NewDetector creates a detector reading from fs and probing tools with exec.
func NewDetector(fs afero.Fs, exec command.Executor, devDir string) *Detector {
	if devDir == "" {
		devDir = "/dev"
	}
	return &Detector{
		fs:     fs,
		exec:   exec,
		osType: OSType(runtime.GOOS),
		devDir: devDir,
	}
}

// GetOSType returns the current operating system type.
func (d *Detector) GetOSType() OSType {
	return d.osType
}

// GetOSInfo returns a one-line description of the host.
func (d *Detector) GetOSInfo() string {
	if d.osType != OSLinux {
		return fmt.Sprintf("Operating System: %s (unsupported, DDC/CI needs Linux i2c-dev)", d.osType)
	}
	info, err := d.DetectLinuxInfo()
	if err != nil {
		return fmt.Sprintf("Operating System: %s (Error: %v)", d.osType, err)
	}
	return fmt.Sprintf("Operating System: %s (%s %s, kernel %s)",
		d.osType, info.Name, info.Version, info.KernelRelease)
}

// CheckSupport lists I2C device nodes and helper tools, and picks the
// backend "auto" resolves to.
func (d *Detector) CheckSupport() Support {
	s := Support{Tools: make(map[string]bool)}

	matches, err := afero.Glob(d.fs, filepath.Join(d.devDir, "i2c-*"))
	if err == nil {
		slices.Sort(matches)
		s.I2CNodes = matches
	}
	if ok, err := afero.DirExists(d.fs, "/sys/module/i2c_dev"); err == nil && ok {
		s.I2CDevLoaded = true
	}
	for _, tool := range []string{"ddcutil", "xrandr"} {
		_, err := d.exec.LookPath(tool)
		s.Tools[tool] = err == nil
	}

	switch {
	case len(s.I2CNodes) > 0:
		s.Backend = BackendI2C
		s.BackendReason = fmt.Sprintf("%d i2c device nodes in %s", len(s.I2CNodes), d.devDir)
	case s.Tools["ddcutil"]:
		s.Backend = BackendDdcutil
		s.BackendReason = "no i2c device nodes, ddcutil found on PATH"
	default:
		s.BackendReason = "no i2c device nodes and ddcutil not found; load i2c-dev"
	}
	return s
}

// SelectBackend resolves a configured backend kind to a concrete one.
func (d *Detector) SelectBackend(want BackendKind) (BackendKind, error) {
	switch want {
	case BackendI2C, BackendDdcutil:
		return want, nil
	case BackendAuto, "":
		s := d.CheckSupport()
		if s.Backend == "" {
			return "", fmt.Errorf("%w: %s", ErrNoBackend, s.BackendReason)
		}
		return s.Backend, nil
	default:
		return "", fmt.Errorf("unknown ddc backend %q", want)
	}
}

// DetectLinuxInfo gathers kernel and distribution details.
func (d *Detector) DetectLinuxInfo() (*LinuxInfo, error) {
	if d.osType != OSLinux {
		return nil, errors.New("not running on Linux")
	}

	info := &LinuxInfo{}
	if err := kernelInfo(info); err != nil {
		return nil, fmt.Errorf("kernel info: %w", err)
	}

	if err := d.getDistributionInfo(info); err != nil {
		return nil, fmt.Errorf("failed to detect distribution info: %w", err)
	}
	return info, nil
}

func (d *Detector) getDistributionInfo(info *LinuxInfo) error {
	if err := d.parseKeyValueFile("/etc/os-release", info, osReleaseKey); err == nil {
		return nil
	}
	if err := d.parseKeyValueFile("/etc/lsb-release", info, lsbReleaseKey); err == nil {
		return nil
	}
	if err := d.parseDistributionSpecificFiles(info); err == nil {
		return nil
	}
	return errors.New("could not detect distribution information")
}

func osReleaseKey(info *LinuxInfo, key, value string) {
	switch key {
	case "NAME":
		info.Name = value
	case "VERSION":
		info.Version = value
	case "ID":
		info.ID = value
	case "VERSION_ID":
		info.VersionID = value
	case "PRETTY_NAME":
		info.PrettyName = value
	case "VERSION_CODENAME":
		info.Codename = value
	case "UBUNTU_CODENAME":
		if info.Codename == "" {
			info.Codename = value
		}
	}
}

func lsbReleaseKey(info *LinuxInfo, key, value string) {
	switch key {
	case "DISTRIB_ID":
		info.ID = strings.ToLower(value)
		info.Name = value
	case "DISTRIB_RELEASE":
		info.Version = value
		info.VersionID = value
	case "DISTRIB_DESCRIPTION":
		info.PrettyName = value
	case "DISTRIB_CODENAME":
		info.Codename = value
	}
}

// parseKeyValueFile reads KEY=value lines, unquoting values.
func (d *Detector) parseKeyValueFile(path string, info *LinuxInfo, set func(*LinuxInfo, string, string)) error {
	file, err := d.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		set(info, strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"'`))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if info.Name == "" && info.ID == "" && info.PrettyName == "" {
		return fmt.Errorf("no useful information found in %s", path)
	}
	return nil
}

func (d *Detector) parseDistributionSpecificFiles(info *LinuxInfo) error {
	releaseFiles := []struct {
		path   string
		distro string
	}{
		{"/etc/redhat-release", "redhat"},
		{"/etc/fedora-release", "fedora"},
		{"/etc/debian_version", "debian"},
		{"/etc/arch-release", "arch"},
		{"/etc/gentoo-release", "gentoo"},
		{"/etc/alpine-release", "alpine"},
	}

	title := cases.Title(language.English)
	for _, rf := range releaseFiles {
		content, err := afero.ReadFile(d.fs, rf.path)
		if err != nil {
			continue
		}
		first, _, _ := strings.Cut(string(content), "\n")
		first = strings.TrimSpace(first)

		info.ID = rf.distro
		info.Name = title.String(rf.distro)
		info.PrettyName = first
		if version := extractVersion(first); version != "" {
			info.Version = version
			info.VersionID = version
		}
		return nil
	}
	return errors.New("no distribution-specific files found")
}

// extractVersion finds the first word shaped like "8.5" or "20.04".
func extractVersion(content string) string {
	for _, word := range strings.Fields(content) {
		if len(word) >= 3 && word[0] >= '0' && word[0] <= '9' && strings.Contains(word, ".") {
			return word
		}
	}
	return ""
}
