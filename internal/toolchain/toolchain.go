// Package toolchain sets up the hermetic Visual Studio toolchain described by
// build/win_toolchain.json and stages its runtime DLLs next to the build
// output.
package toolchain

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json" // Drop-in encoding/json replacement
	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/gyp"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

// DataFileName is the toolchain description, relative to the checkout root.
var DataFileName = filepath.Join("build", "win_toolchain.json")

// Data mirrors win_toolchain.json.
type Data struct {
	Path    string `json:"path"`    // Root of the VS installation
	Version string `json:"version"` // Visual Studio version, e.g. "2013"
	WinSDK  string `json:"win_sdk"` // Windows SDK directory
	Win8SDK string `json:"win8sdk"` // Older name for win_sdk
	WDK     string `json:"wdk"`     // Windows Driver Kit directory
	// RuntimeDirs holds the x64 directory first and the x86 one second.
	RuntimeDirs []string `json:"runtime_dirs"`
}

// SDK returns win_sdk, falling back to win8sdk.
func (d *Data) SDK() string {
	if d.WinSDK != "" {
		return d.WinSDK
	}
	return d.Win8SDK
}

// RuntimeDirs locates the VS runtime DLLs for each architecture.
type RuntimeDirs struct {
	X64 string
	X86 string
}

// LoadData reads and validates a toolchain description.
func LoadData(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if d.Path == "" || d.Version == "" {
		return nil, errors.Errorf("%s: path and version are required", path)
	}
	if len(d.RuntimeDirs) != 2 {
		return nil, errors.Errorf("%s: runtime_dirs must list the x64 and x86 directories, got %d entries", path, len(d.RuntimeDirs))
	}
	return &d, nil
}

// Manager finds the managed toolchain for one checkout.
type Manager struct {
	CheckoutRoot string
	Host         environ.HostOS
	// Package is an optional toolchain archive (.zip, .7z, .tar.*) that is
	// unpacked into the checkout when win_toolchain.json is missing.
	Package string
	// NoUpdate makes a missing win_toolchain.json an error instead of
	// unpacking Package.
	NoUpdate bool
}

// DataPath returns the absolute location of win_toolchain.json.
func (m *Manager) DataPath() string {
	return filepath.Join(m.CheckoutRoot, DataFileName)
}

// Update unpacks the toolchain package so that win_toolchain.json exists.
func (m *Manager) Update() error {
	if m.NoUpdate {
		return errors.Errorf("%s not found", m.DataPath())
	}
	if m.Package == "" {
		return errors.Errorf("%s not found and no toolchain package is configured", m.DataPath())
	}
	logger.Info("[INFO] Unpacking Windows toolchain from %s...\n", m.Package)
	if _, err := ExtractArchive(m.Package, m.CheckoutRoot); err != nil {
		return errors.Wrapf(err, "unpack toolchain package %s", m.Package)
	}
	if _, err := os.Stat(m.DataPath()); err != nil {
		return errors.Errorf("toolchain package %s does not provide %s", m.Package, DataFileName)
	}
	return nil
}

// SetEnvironmentAndGetRuntimeDllDirs points GYP at the managed toolchain and
// returns its runtime DLL directories. Non-Windows hosts have nothing to set
// up and get nil.
func (m *Manager) SetEnvironmentAndGetRuntimeDllDirs(env *environ.Env) (*RuntimeDirs, error) {
	if !m.Host.Windows() {
		return nil, nil
	}

	if _, err := os.Stat(m.DataPath()); os.IsNotExist(err) {
		if err := m.Update(); err != nil {
			return nil, errors.Wrap(err, "locate Windows toolchain (set DEPOT_TOOLS_WIN_TOOLCHAIN=0 to use a local Visual Studio)")
		}
	}
	data, err := LoadData(m.DataPath())
	if err != nil {
		return nil, err
	}

	env.Set("GYP_MSVS_OVERRIDE_PATH", data.Path)
	env.Set("GYP_MSVS_VERSION", data.Version)

	defs, err := gyp.ParseDefines(env)
	if err != nil {
		return nil, err
	}
	defs["windows_sdk_path"] = data.SDK()
	defs.Store(env)

	env.Set("WINDOWSSDKDIR", data.SDK())
	env.Set("WDK_DIR", data.WDK)
	// The VS runtime may not be installed machine-wide.
	env.Prepend("PATH", strings.Join(data.RuntimeDirs, ";")+";")

	dirs := &RuntimeDirs{X64: data.RuntimeDirs[0], X86: data.RuntimeDirs[1]}
	logger.Debug("[DEBUG] Managed toolchain VS%s at %s, runtime dirs %+v\n", data.Version, data.Path, *dirs)
	return dirs, nil
}
