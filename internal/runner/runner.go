// Package runner ties the pieces together: it assembles the environment,
// builds the argument vector, runs GYP and stages the VS runtime.
package runner

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/assemble"
	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/gyp"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
	"github.com/anderm/zzz-obsolete.webrtc/internal/toolchain"
)

// Options configures one run.
type Options struct {
	CheckoutRoot string
	// WorkDir is where the user started the front end.
	WorkDir string
	// Args are the caller's generator arguments, forwarded verbatim.
	Args             []string
	Host             environ.HostOS
	DefaultBuildFile string

	Generator Generator
	Toolchain assemble.ToolchainLocator
	Overlay   assemble.OverlayFunc
}

// Plan is everything decided before GYP starts.
type Plan struct {
	// Base is the environment as it was before any stage ran.
	Base       *environ.Env
	Env        *environ.Env
	Result     *assemble.Result
	Invocation gyp.Invocation
}

// Prepare runs the assembler on env (modifying it) and builds the
// invocation. assemble.ErrSkipped is passed through unchanged.
func Prepare(env *environ.Env, opts Options) (*Plan, error) {
	base := env.Clone()
	res, err := assemble.Assemble(env, assemble.Options{
		CheckoutRoot: opts.CheckoutRoot,
		Host:         opts.Host,
		Args:         opts.Args,
		Toolchain:    opts.Toolchain,
		Overlay:      opts.Overlay,
	})
	if err != nil {
		return nil, err
	}

	includes := gyp.AdditionalIncludeFiles(env, opts.CheckoutRoot, res.Supplements, opts.Args)
	inv, err := gyp.BuildArgs(gyp.BuildOptions{
		Args:             opts.Args,
		CheckoutRoot:     opts.CheckoutRoot,
		WorkDir:          opts.WorkDir,
		Includes:         includes,
		SyntaxCheck:      res.SyntaxCheck,
		DefaultBuildFile: opts.DefaultBuildFile,
	})
	if err != nil {
		return nil, err
	}
	return &Plan{Base: base, Env: env, Result: res, Invocation: inv}, nil
}

// Run performs a complete gyp run and returns the generator's exit status.
// A non-nil error means the run failed before or after the generator in a
// way that must abort with a non-zero status.
func Run(ctx context.Context, env *environ.Env, opts Options) (int, error) {
	plan, err := Prepare(env, opts)
	if err != nil {
		return 1, err
	}
	if opts.Generator == nil {
		return 1, errors.New("no generator configured")
	}

	logger.Info("[INFO] Updating projects from gyp files...\n")
	rc, err := opts.Generator.Generate(ctx, plan.Invocation, plan.Env)
	if err != nil {
		return rc, err
	}
	logger.Debug("[DEBUG] gyp exited with status %d\n", rc)

	if dirs := plan.Result.RuntimeDirs; dirs != nil {
		if err := stageRuntime(plan, opts, *dirs); err != nil {
			return rc, err
		}
	}
	return rc, nil
}

func stageRuntime(plan *Plan, opts Options, dirs toolchain.RuntimeDirs) error {
	outDir, err := gyp.OutputDirectory(plan.Env, opts.Args)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(opts.CheckoutRoot, outDir)
	}
	if err := toolchain.CopyVsRuntimeDlls(outDir, dirs, toolchain.VisualStudioVersion(plan.Env)); err != nil {
		return errors.Wrap(err, "stage VS runtime")
	}
	return nil
}
