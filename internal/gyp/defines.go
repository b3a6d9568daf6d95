// Package gyp knows the conventions of the GYP command line and of the
// GYP_* environment variables: define lists, variable resolution,
// supplemental include discovery and the final argument vector.
package gyp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
)

// Defines is a set of GYP variable definitions, as carried by GYP_DEFINES.
type Defines map[string]string

// ShlexEnv splits the named variable using POSIX shell rules. An unset or
// blank variable yields an empty list.
func ShlexEnv(env *environ.Env, name string) ([]string, error) {
	raw := env.Get(name)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	words, err := shellquote.Split(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", name)
	}
	return words, nil
}

// NameValueListToDict turns ["a=1", "b=x", "c"] into a Defines set. Values
// that read as integers are normalized ("007" becomes "7"); a bare name is
// defined as "1".
func NameValueListToDict(items []string) Defines {
	defs := make(Defines, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			defs[name] = "1"
			continue
		}
		if n, err := strconv.Atoi(value); err == nil {
			value = strconv.Itoa(n)
		}
		defs[name] = value
	}
	return defs
}

// ParseDefines reads GYP_DEFINES from env.
func ParseDefines(env *environ.Env) (Defines, error) {
	words, err := ShlexEnv(env, "GYP_DEFINES")
	if err != nil {
		return nil, err
	}
	return NameValueListToDict(words), nil
}

// String serializes the set as space separated name=value pairs with shell
// quoting, sorted by name so repeated runs produce identical environments.
func (d Defines) String() string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+shellquote.Join(d[name]))
	}
	return strings.Join(parts, " ")
}

// Store writes the set back into GYP_DEFINES.
func (d Defines) Store(env *environ.Env) {
	env.Set("GYP_DEFINES", d.String())
}
