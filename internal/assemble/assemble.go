// Package assemble derives the environment the GYP generator runs with.
//
// The work is a fixed pipeline of named stages over one *environ.Env:
//
//	skip -> overlay -> generator -> normalize -> missing-sources ->
//	toolchain -> syntax-check -> crosscompile
//
// Each stage only reads what earlier stages wrote. The first error stops
// the pipeline.
package assemble

import (
	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/gyp"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
	"github.com/anderm/zzz-obsolete.webrtc/internal/overlay"
	"github.com/anderm/zzz-obsolete.webrtc/internal/toolchain"
	"github.com/anderm/zzz-obsolete.webrtc/internal/winsdk"
)

// ErrSkipped is returned when GYP_CHROMIUM_NO_ACTION asks for no work.
// It is not a failure: callers exit 0.
var ErrSkipped = errors.New("skipping gyp_webrtc due to GYP_CHROMIUM_NO_ACTION env var")

// Environment variables read or written by the pipeline.
const (
	NoActionVar       = "GYP_CHROMIUM_NO_ACTION"
	SkipOverlayVar    = "SKIP_WEBRTC_GYP_ENV"
	GeneratorsVar     = "GYP_GENERATORS"
	GeneratorFlagsVar = "GYP_GENERATOR_FLAGS"
	WinToolchainVar   = "DEPOT_TOOLS_WIN_TOOLCHAIN"
	CrossCompileVar   = "GYP_CROSSCOMPILE"
	UCRTSdkDirVar     = "UniversalCRTSdkDir"

	DefaultGenerator   = "ninja"
	missingSourcesFlag = "msvs_error_on_missing_sources"
)

// ToolchainLocator sets up a managed toolchain and reports where its
// runtime DLLs live. A nil result means there is nothing to stage.
type ToolchainLocator interface {
	SetEnvironmentAndGetRuntimeDllDirs(env *environ.Env) (*toolchain.RuntimeDirs, error)
}

// OverlayFunc applies an overlay file to env and reports whether it existed.
type OverlayFunc func(env *environ.Env, path string) (bool, error)

// Options are the inputs of the pipeline that do not live in the
// environment.
type Options struct {
	CheckoutRoot string
	Host         environ.HostOS
	// Args are the caller's generator arguments; -D definitions among them
	// take part in GYP variable resolution.
	Args []string

	Toolchain ToolchainLocator
	// Overlay defaults to overlay.Apply.
	Overlay OverlayFunc
}

// Result collects the decisions made by the pipeline.
type Result struct {
	Generators          environ.Generators
	SDK                 winsdk.Result
	MissingSourcesCheck bool
	RuntimeDirs         *toolchain.RuntimeDirs
	SyntaxCheck         bool
	CrossCompile        bool

	// Supplements are the supplemental .gypi files, including the user's
	// include.gypi. The argument builder passes them with -I.
	Supplements []string
	GypVars     map[string]string
	TargetOS    environ.TargetOS
}

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Run  func(a *Assembler) error
}

// Stages lists the pipeline in execution order.
var Stages = []Stage{
	{"skip", (*Assembler).checkSkip},
	{"overlay", (*Assembler).applyOverlay},
	{"generator", (*Assembler).selectGenerator},
	{"normalize", (*Assembler).normalizeWinSDK},
	{"missing-sources", (*Assembler).enableMissingSourcesCheck},
	{"toolchain", (*Assembler).setupToolchain},
	{"syntax-check", (*Assembler).enableSyntaxCheck},
	{"crosscompile", (*Assembler).inferCrossCompile},
}

// Assembler runs the stages against one environment.
type Assembler struct {
	opts   Options
	env    *environ.Env
	result Result
}

// New prepares an Assembler. env is modified in place by Run.
func New(env *environ.Env, opts Options) *Assembler {
	if opts.Overlay == nil {
		opts.Overlay = overlay.Apply
	}
	return &Assembler{opts: opts, env: env}
}

// Run executes every stage in order.
func (a *Assembler) Run() (*Result, error) {
	for _, st := range Stages {
		logger.Debug("[DEBUG] stage %s\n", st.Name)
		if err := st.Run(a); err != nil {
			if errors.Is(err, ErrSkipped) {
				return nil, err
			}
			return nil, errors.Wrapf(err, "%s", st.Name)
		}
	}
	res := a.result
	return &res, nil
}

// Assemble is New(env, opts).Run().
func Assemble(env *environ.Env, opts Options) (*Result, error) {
	return New(env, opts).Run()
}

func (a *Assembler) checkSkip() error {
	skip, err := a.env.Bool(NoActionVar, false)
	if err != nil {
		return err
	}
	if skip {
		return ErrSkipped
	}
	return nil
}

func (a *Assembler) applyOverlay() error {
	if a.env.Has(SkipOverlayVar) {
		logger.Debug("[DEBUG] %s set, not reading %s\n", SkipOverlayVar, overlay.FileName)
		return nil
	}
	_, err := a.opts.Overlay(a.env, overlay.PathFor(a.opts.CheckoutRoot))
	return err
}

func (a *Assembler) selectGenerator() error {
	if a.env.Get(GeneratorsVar) == "" {
		a.env.Set(GeneratorsVar, DefaultGenerator)
	}
	a.result.Generators = environ.ParseGenerators(a.env.Get(GeneratorsVar))
	return nil
}

func (a *Assembler) normalizeWinSDK() error {
	res, err := winsdk.Normalize(a.env)
	if err != nil {
		return err
	}
	a.result.SDK = res
	return nil
}

func (a *Assembler) enableMissingSourcesCheck() error {
	if !a.opts.Host.Windows() {
		return nil
	}
	a.env.AppendFlag(GeneratorFlagsVar, missingSourcesFlag, "1")
	a.result.MissingSourcesCheck = true
	return nil
}

func (a *Assembler) setupToolchain() error {
	managed, err := a.env.Bool(WinToolchainVar, true)
	if err != nil {
		return err
	}
	if managed {
		if a.opts.Toolchain == nil {
			return nil
		}
		dirs, err := a.opts.Toolchain.SetEnvironmentAndGetRuntimeDllDirs(a.env)
		if err != nil {
			return err
		}
		a.result.RuntimeDirs = dirs
		return nil
	}

	sdkDir, ok := a.env.Lookup(UCRTSdkDirVar)
	if !ok {
		return nil
	}
	defs, err := gyp.ParseDefines(a.env)
	if err != nil {
		return err
	}
	defs["windows_sdk_path"] = sdkDir
	defs.Store(a.env)
	return nil
}

func (a *Assembler) enableSyntaxCheck() error {
	// Syntax checking adds about 20% to generation time; it is always on.
	a.result.SyntaxCheck = true
	return nil
}

func (a *Assembler) inferCrossCompile() error {
	a.result.Supplements = gyp.Supplements(a.env, a.opts.Host, a.opts.CheckoutRoot)
	vars, err := gyp.GetGypVars(a.env, a.result.Supplements, a.opts.Args)
	if err != nil {
		return err
	}
	a.result.GypVars = vars
	a.result.TargetOS = environ.ParseTargetOS(vars["OS"])

	if a.result.Generators.Ninja() && a.result.TargetOS.Mobile() && !a.env.Has(CrossCompileVar) {
		a.env.Set(CrossCompileVar, "1")
		a.result.CrossCompile = true
		logger.Debug("[DEBUG] %s=1 for OS=%s\n", CrossCompileVar, vars["OS"])
	}
	return nil
}
