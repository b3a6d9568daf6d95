package gyp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

// supplement is the part of a .gypi file the front end cares about. The
// files are Python dict literals, which parse as YAML flow mappings once
// NormalizeLiteral has rewritten their strings.
type supplement struct {
	Variables map[string]any `yaml:"variables"`
}

// HomeIncludeFile returns the per-user include.gypi, or "" when there is
// none. GYP_CONFIG_DIR wins over HOME (and USERPROFILE on Windows).
func HomeIncludeFile(env *environ.Env, host environ.HostOS) string {
	dotGyp := env.Get("GYP_CONFIG_DIR")
	if dotGyp != "" {
		dotGyp = expandHome(env, dotGyp)
	} else {
		homeVars := []string{"HOME"}
		if host.Windows() {
			homeVars = append(homeVars, "USERPROFILE")
		}
		for _, v := range homeVars {
			home, ok := env.Lookup(v)
			if !ok {
				continue
			}
			candidate := filepath.Join(home, ".gyp")
			if isDir(candidate) {
				dotGyp = candidate
				break
			}
		}
	}
	if dotGyp == "" {
		return ""
	}
	include := filepath.Join(dotGyp, "include.gypi")
	if _, err := os.Stat(include); err != nil {
		return ""
	}
	return include
}

func expandHome(env *environ.Env, path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home := env.Get("HOME")
	if home == "" {
		home = env.Get("USERPROFILE")
	}
	if home == "" {
		return path
	}
	return filepath.Join(home, path[1:])
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// LoadSupplementVariables reads the "variables" dictionary of a .gypi file.
// Values are rendered the way GYP stringifies them.
func LoadSupplementVariables(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if raw, err = NormalizeLiteral(raw); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	var s supplement
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	vars := make(map[string]string, len(s.Variables))
	for k, v := range s.Variables {
		vars[k] = stringify(v)
	}
	return vars, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// CommandLineDefines collects -D definitions from the caller's arguments,
// accepting both "-Dname=value" and "-D name=value".
func CommandLineDefines(args []string) []string {
	var items []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-D") {
			continue
		}
		if arg == "-D" {
			if i+1 < len(args) {
				items = append(items, args[i+1])
				i++
			}
			continue
		}
		items = append(items, arg[2:])
	}
	return items
}

func processDefineItems(items []string) map[string]string {
	vars := make(map[string]string, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			value = "1"
		}
		vars[name] = value
	}
	return vars
}

// GetGypVars resolves the GYP variables visible to the generator, in
// increasing priority: supplemental files, GYP_DEFINES, -D arguments.
func GetGypVars(env *environ.Env, supplements []string, args []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, path := range supplements {
		sv, err := LoadSupplementVariables(path)
		if err != nil {
			return nil, err
		}
		for k, v := range sv {
			vars[k] = v
		}
	}

	words, err := ShlexEnv(env, "GYP_DEFINES")
	if err != nil {
		return nil, err
	}
	for k, v := range processDefineItems(words) {
		vars[k] = v
	}
	for k, v := range processDefineItems(CommandLineDefines(args)) {
		vars[k] = v
	}

	logger.Debug("[DEBUG] Resolved %d gyp variables from %d supplemental files\n", len(vars), len(supplements))
	return vars, nil
}
