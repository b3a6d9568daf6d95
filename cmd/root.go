package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/anderm/zzz-obsolete.webrtc/internal/assemble"
	"github.com/anderm/zzz-obsolete.webrtc/internal/config"
	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
	"github.com/anderm/zzz-obsolete.webrtc/internal/runner"
	"github.com/anderm/zzz-obsolete.webrtc/internal/toolchain"
)

// CheckoutRootVar names the checkout root when --checkout-root is not given.
const CheckoutRootVar = "WEBRTC_CHECKOUT_ROOT"

// cli holds the global flags and the exit status of the last command.
type cli struct {
	debug        bool
	configPath   string
	checkoutRoot string

	exitCode int
	out      io.Writer
}

// newRootCmd builds the `gyp-webrtc` command tree. Flag parsing stops at the
// first positional argument or unknown flag; see splitGypArgs.
func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "gyp-webrtc [flags] [--] [gyp args...]",
		Short: "Generate WebRTC build files with GYP",
		Long: `gyp-webrtc derives the GYP environment for a WebRTC checkout
(overlay file, generator selection, Windows SDK and toolchain setup,
cross-compile detection), runs the GYP generator and stages the
Visual Studio runtime next to the build output.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Set up logging before any subcommand runs.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(c.debug)
		},
		RunE: c.run,
	}
	root.Flags().SetInterspersed(false)
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to settings file (default <checkout>/build/gyp_webrtc.yaml)")
	root.PersistentFlags().StringVar(&c.checkoutRoot, "checkout-root", "", "WebRTC checkout root (default $"+CheckoutRootVar+" or the nearest parent with tools/gyp)")

	root.AddCommand(newEnvCmd(c))
	return root
}

// Execute parses the command line, runs the selected command and returns
// the process exit status.
func Execute() int {
	c := &cli{out: os.Stdout}
	return c.execute(os.Args[1:])
}

func (c *cli) execute(args []string) int {
	root := newRootCmd(c)
	root.SetArgs(splitGypArgs(root, args))
	if err := root.Execute(); err != nil {
		logger.Error("[ERROR] %v\n", err)
		return 1
	}
	return c.exitCode
}

// splitGypArgs inserts "--" in front of the first token that is neither one
// of our flags nor a subcommand name, so gyp flags such as -Dfoo=1 or
// --depth=. reach the generator untouched.
func splitGypArgs(root *cobra.Command, args []string) []string {
	root.InitDefaultHelpFlag()
	root.InitDefaultHelpCmd()

	cmd := root
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			return args
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			if cmd == root {
				if sub := subcommand(root, tok); sub != nil {
					cmd = sub
					continue
				}
			}
			return forward(args, i)
		}

		f, attached := lookupFlag(cmd, root, tok)
		if f == nil {
			return forward(args, i)
		}
		if !attached && f.NoOptDefVal == "" {
			i++ // the value is the next token
		}
	}
	return args
}

func forward(args []string, i int) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, "--")
	return append(out, args[i:]...)
}

func subcommand(root *cobra.Command, name string) *cobra.Command {
	for _, sub := range root.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}

// lookupFlag resolves tok against cmd's flags and the persistent flags of
// root. attached reports a value given in the same token (--config=x, -cx).
func lookupFlag(cmd, root *cobra.Command, tok string) (f *pflag.Flag, attached bool) {
	find := func(name string, short bool) *pflag.Flag {
		for _, fs := range []*pflag.FlagSet{cmd.Flags(), root.PersistentFlags()} {
			var fl *pflag.Flag
			if short {
				fl = fs.ShorthandLookup(name)
			} else {
				fl = fs.Lookup(name)
			}
			if fl != nil {
				return fl
			}
		}
		if name == "help" || name == "h" {
			return &pflag.Flag{Name: "help", NoOptDefVal: "true"}
		}
		return nil
	}

	if strings.HasPrefix(tok, "--") {
		name, _, hasValue := strings.Cut(tok[2:], "=")
		return find(name, false), hasValue
	}
	return find(tok[1:2], true), len(tok) > 2
}

// run is the default command: assemble, generate, stage the runtime.
func (c *cli) run(cmd *cobra.Command, args []string) error {
	opts, settings, err := c.options(args)
	if err != nil {
		return err
	}
	gen := runner.CommandFromSettings(settings.Generator)
	opts.Generator = gen
	opts.Toolchain = &toolchain.Manager{
		CheckoutRoot: opts.CheckoutRoot,
		Host:         opts.Host,
		Package:      settings.Toolchain.Package,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rc, err := runner.Run(ctx, environ.FromOS(), opts)
	if errors.Is(err, assemble.ErrSkipped) {
		logger.Info("Skipping gyp_webrtc due to GYP_CHROMIUM_NO_ACTION env var.\n")
		c.exitCode = 0
		return nil
	}
	if err != nil {
		return err
	}
	c.exitCode = rc
	return nil
}

// options resolves the checkout, loads its settings and fills in everything
// runner.Options needs except the collaborators.
func (c *cli) options(args []string) (runner.Options, config.Settings, error) {
	wd, err := os.Getwd()
	if err != nil {
		return runner.Options{}, config.Settings{}, errors.Wrap(err, "get working directory")
	}
	root, err := resolveCheckoutRoot(c.checkoutRoot, os.Getenv(CheckoutRootVar), wd)
	if err != nil {
		return runner.Options{}, config.Settings{}, err
	}

	path := c.configPath
	if path == "" {
		path = config.DefaultPath(root)
	}
	settings, err := config.LoadConfig(path, root)
	if err != nil {
		return runner.Options{}, config.Settings{}, err
	}
	logger.Debug("[DEBUG] checkout root %s, settings %s\n", root, path)

	return runner.Options{
		CheckoutRoot:     root,
		WorkDir:          wd,
		Args:             args,
		Host:             environ.CurrentHost(),
		DefaultBuildFile: settings.DefaultBuildFile,
	}, settings, nil
}

// resolveCheckoutRoot picks the checkout root: the flag, then the
// environment variable, then the nearest parent of wd containing tools/gyp.
func resolveCheckoutRoot(flag, fromEnv, wd string) (string, error) {
	for _, p := range []string{flag, fromEnv} {
		if p != "" {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", errors.Wrapf(err, "resolve checkout root %s", p)
			}
			return abs, nil
		}
	}

	dir := wd
	for {
		if fi, err := os.Stat(filepath.Join(dir, "tools", "gyp")); err == nil && fi.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Errorf("no checkout root found above %s; use --checkout-root or $%s", wd, CheckoutRootVar)
		}
		dir = parent
	}
}
