// Package overlay applies a *.gyp_env file to the run's environment. The
// file is a Python dict literal such as
//
//	{ 'GYP_DEFINES': 'OS=android', 'GYP_GENERATORS': 'ninja' }
//
// Its string literals are rewritten by gyp.NormalizeLiteral, after which the
// file is a YAML flow mapping read with yaml.v3.
package overlay

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/gyp"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

// FileName is the overlay file kept next to the checkout root.
const FileName = "webrtc.gyp_env"

// SupportedVars are the only keys copied out of an overlay file.
var SupportedVars = []string{
	"CC",
	"CC_wrapper",
	"CC.host_wrapper",
	"CHROMIUM_GYP_FILE",
	"CHROMIUM_GYP_SYNTAX_CHECK",
	"CXX",
	"CXX_wrapper",
	"CXX.host_wrapper",
	"GYP_DEFINES",
	"GYP_GENERATOR_FLAGS",
	"GYP_CROSSCOMPILE",
	"GYP_GENERATOR_OUTPUT",
	"GYP_GENERATORS",
	"GYP_INCLUDE_FIRST",
	"GYP_INCLUDE_LAST",
	"GYP_MSVS_VERSION",
}

// PathFor returns the overlay location for a checkout: one level above the
// checkout root.
func PathFor(checkoutRoot string) string {
	return filepath.Join(filepath.Dir(checkoutRoot), FileName)
}

// Load parses an overlay file into name -> value. Missing files return
// (nil, nil).
func Load(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	if raw, err = gyp.NormalizeLiteral(raw); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	values := make(map[string]string, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

// Apply copies the supported keys from the overlay at path into env and
// reports whether the file existed.
//
// Variables already set in the environment win, except GYP_DEFINES, where
// the overlay value is prepended so individual environment defines override
// it.
func Apply(env *environ.Env, path string) (bool, error) {
	values, err := Load(path)
	if err != nil {
		return false, err
	}
	if values == nil {
		logger.Debug("[DEBUG] No overlay at %s\n", path)
		return false, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, name := range SupportedVars {
		fileVal := values[name]
		if fileVal == "" {
			continue
		}
		cur, ok := env.Lookup(name)
		if !ok {
			env.Set(name, fileVal)
			logger.Debug("[DEBUG] %s=%s from %s\n", name, fileVal, abs)
			continue
		}

		result := cur
		behavior := "replaces"
		if name == "GYP_DEFINES" {
			result = fileVal + " " + cur
			behavior = "merges with, and individual components override,"
		}
		logger.Info("[INFO] Environment value for %q %s value in %s\n", name, behavior, abs)
		logger.Info("[INFO]   %-8s %q\n", "env:", cur)
		logger.Info("[INFO]   %-8s %q\n", "file:", fileVal)
		logger.Info("[INFO]   %-8s %q\n", "result:", result)
		env.Set(name, result)
	}
	return true, nil
}
