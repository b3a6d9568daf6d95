package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file, relative to the checkout root.
var FileName = filepath.Join("build", "gyp_webrtc.yaml")

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		Generator: Generator{
			Interpreter: "python",
			Script:      filepath.Join("tools", "gyp", "gyp_main.py"),
		},
		DefaultBuildFile: "all.gyp",
	}
}

// DefaultPath returns the settings location for a checkout.
func DefaultPath(checkoutRoot string) string {
	return filepath.Join(checkoutRoot, FileName)
}

// LoadConfig reads the settings file at path on top of Default. A missing
// file is not an error. Relative paths inside the file are resolved against
// checkoutRoot.
func LoadConfig(path, checkoutRoot string) (Settings, error) {
	s := Default()

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return s, errors.Wrapf(err, "read %s", path)
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return s, errors.Wrapf(err, "unmarshal %s", path)
		}
	}

	// Empty keys in the file fall back to the defaults.
	def := Default()
	if s.Generator.Interpreter == "" {
		s.Generator.Interpreter = def.Generator.Interpreter
	}
	if s.Generator.Script == "" {
		s.Generator.Script = def.Generator.Script
	}
	if s.DefaultBuildFile == "" {
		s.DefaultBuildFile = def.DefaultBuildFile
	}

	s.Generator.Script = resolve(checkoutRoot, s.Generator.Script)
	if s.Toolchain.Package != "" {
		s.Toolchain.Package = resolve(checkoutRoot, s.Toolchain.Package)
	}
	return s, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
