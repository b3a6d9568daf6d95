// Package environ holds the environment a gyp run derives and hands to the
// generator. Stages receive an explicit *Env instead of touching the real
// process environment, so every mutation is visible in one place and tests
// can build any starting state.
package environ

import (
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type entry struct {
	name  string
	value string
}

// Env is a mutable name -> value mapping. On Windows hosts names are
// case-insensitive, matching how the OS (and the child process) sees them.
type Env struct {
	fold bool
	vars map[string]entry
}

// New returns an empty environment. fold selects case-insensitive names.
func New(fold bool) *Env {
	return &Env{fold: fold, vars: make(map[string]entry)}
}

// FromList builds an environment from "NAME=value" pairs as returned by
// os.Environ. Entries without '=' are ignored; later duplicates win.
func FromList(list []string, fold bool) *Env {
	e := New(fold)
	for _, kv := range list {
		idx := strings.IndexRune(kv, '=')
		// Windows keeps per-drive cwd entries like "=C:=C:\\"; skip them.
		if idx <= 0 {
			continue
		}
		e.Set(kv[:idx], kv[idx+1:])
	}
	return e
}

// FromOS snapshots the current process environment.
func FromOS() *Env {
	return FromList(os.Environ(), runtime.GOOS == "windows")
}

// FromMap is a convenience constructor, mostly for tests.
func FromMap(m map[string]string, fold bool) *Env {
	e := New(fold)
	for k, v := range m {
		e.Set(k, v)
	}
	return e
}

func (e *Env) key(name string) string {
	if e.fold {
		return strings.ToUpper(name)
	}
	return name
}

// Lookup returns the value of name and whether it is present at all.
func (e *Env) Lookup(name string) (string, bool) {
	ent, ok := e.vars[e.key(name)]
	return ent.value, ok
}

// Get returns the value of name or "" when unset.
func (e *Env) Get(name string) string {
	v, _ := e.Lookup(name)
	return v
}

// Has reports whether name is present, even with an empty value.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Set creates or overwrites name. An existing entry keeps its original
// spelling on case-folding environments.
func (e *Env) Set(name, value string) {
	k := e.key(name)
	if ent, ok := e.vars[k]; ok {
		name = ent.name
	}
	e.vars[k] = entry{name: name, value: value}
}

// Unset removes name.
func (e *Env) Unset(name string) {
	delete(e.vars, e.key(name))
}

// Append adds suffix to the end of the current value of name, creating the
// variable when absent.
func (e *Env) Append(name, suffix string) {
	e.Set(name, e.Get(name)+suffix)
}

// Prepend adds prefix in front of the current value of name, creating the
// variable when absent.
func (e *Env) Prepend(name, prefix string) {
	e.Set(name, prefix+e.Get(name))
}

// AppendFlag appends " token=value" to name unless token already occurs in
// it. It reports whether the value changed; calling it twice is harmless.
func (e *Env) AppendFlag(name, token, value string) bool {
	cur := e.Get(name)
	if strings.Contains(cur, token) {
		return false
	}
	e.Set(name, cur+" "+token+"="+value)
	return true
}

// Bool interprets name as a boolean switch. Integers are true when non-zero;
// true/false/yes/no/on/off are accepted in any case. An unset or empty
// variable yields def. Anything else is an error.
func (e *Env) Bool(name string, def bool) (bool, error) {
	raw, ok := e.Lookup(name)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n != 0, nil
	}
	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return false, errors.Errorf("invalid value %q for %s: expected an integer or boolean", raw, name)
}

// Names returns the variable names in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for _, ent := range e.vars {
		names = append(names, ent.name)
	}
	sort.Strings(names)
	return names
}

// Environ renders the environment as sorted "NAME=value" pairs suitable for
// exec.Cmd.Env.
func (e *Env) Environ() []string {
	list := make([]string, 0, len(e.vars))
	for _, name := range e.Names() {
		list = append(list, name+"="+e.Get(name))
	}
	return list
}

// Clone returns an independent copy.
func (e *Env) Clone() *Env {
	c := New(e.fold)
	for k, ent := range e.vars {
		c.vars[k] = ent
	}
	return c
}

// Change describes one variable that differs between two environments.
type Change struct {
	Name     string
	Old, New string
	Added    bool
	Removed  bool
}

// Diff lists the variables that differ from base, sorted by name.
func (e *Env) Diff(base *Env) []Change {
	var changes []Change
	for _, name := range e.Names() {
		nv := e.Get(name)
		ov, ok := base.Lookup(name)
		switch {
		case !ok:
			changes = append(changes, Change{Name: name, New: nv, Added: true})
		case ov != nv:
			changes = append(changes, Change{Name: name, Old: ov, New: nv})
		}
	}
	for _, name := range base.Names() {
		if !e.Has(name) {
			changes = append(changes, Change{Name: name, Old: base.Get(name), Removed: true})
		}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}
