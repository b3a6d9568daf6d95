package gyp

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// BuildFileExt marks a caller token as a build description file.
	BuildFileExt = ".gyp"
	// DefaultBuildFile is resolved relative to the checkout root.
	DefaultBuildFile = "all.gyp"

	NoCircularCheckFlag = "--no-circular-check"
	CheckFlag           = "--check"
)

// Invocation is a fully assembled generator call.
type Invocation struct {
	Args []string
	// Dir is the working directory the generator must run in. The default
	// build file and --depth are relative to it.
	Dir string
}

// BuildOptions carries everything BuildArgs needs.
type BuildOptions struct {
	Args         []string
	CheckoutRoot string
	// WorkDir is the directory the user invoked the front end from.
	WorkDir     string
	Includes    []string
	SyntaxCheck bool
	// DefaultBuildFile overrides DefaultBuildFile when non-empty.
	DefaultBuildFile string
}

// BuildFileSpecified reports whether any token names a .gyp file.
func BuildFileSpecified(args []string) bool {
	for _, arg := range args {
		if strings.HasSuffix(arg, BuildFileExt) {
			return true
		}
	}
	return false
}

// BuildArgs assembles the generator argument vector. Caller tokens come
// first and unchanged; when they name no .gyp file the default one is added
// and the invocation moves to the checkout root.
func BuildArgs(opts BuildOptions) (Invocation, error) {
	inv := Invocation{Dir: opts.WorkDir}
	inv.Args = append(inv.Args, opts.Args...)

	if !BuildFileSpecified(opts.Args) {
		name := opts.DefaultBuildFile
		if name == "" {
			name = DefaultBuildFile
		}
		inv.Dir = opts.CheckoutRoot
		inv.Args = append(inv.Args, name)
	}

	inv.Args = appendOnce(inv.Args, NoCircularCheckFlag)
	if opts.SyntaxCheck {
		inv.Args = appendOnce(inv.Args, CheckFlag)
	}

	for _, inc := range opts.Includes {
		inv.Args = append(inv.Args, "-I"+inc)
	}

	depth, err := filepath.Rel(inv.Dir, opts.CheckoutRoot)
	if err != nil {
		return Invocation{}, errors.Wrapf(err, "compute --depth for %s from %s", opts.CheckoutRoot, inv.Dir)
	}
	inv.Args = append(inv.Args, "--depth="+depth)
	return inv, nil
}

func appendOnce(args []string, flag string) []string {
	for _, a := range args {
		if a == flag {
			return args
		}
	}
	return append(args, flag)
}
