package cmd

import (
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anderm/zzz-obsolete.webrtc/internal/assemble"
	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/runner"
	"github.com/anderm/zzz-obsolete.webrtc/internal/toolchain"
)

// newEnvCmd is the dry run: it shows what the run would change in the
// environment and the command it would start, without starting it.
func newEnvCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env [flags] [--] [gyp args...]",
		Short: "Print the derived GYP environment and command line without running GYP",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.env,
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (c *cli) env(cmd *cobra.Command, args []string) error {
	opts, settings, err := c.options(args)
	if err != nil {
		return err
	}
	// Never unpack a toolchain package from a dry run.
	opts.Toolchain = &toolchain.Manager{
		CheckoutRoot: opts.CheckoutRoot,
		Host:         opts.Host,
		Package:      settings.Toolchain.Package,
		NoUpdate:     true,
	}

	plan, err := runner.Prepare(environ.FromOS(), opts)
	if errors.Is(err, assemble.ErrSkipped) {
		fmt.Fprintln(c.out, "# GYP_CHROMIUM_NO_ACTION is set; gyp would not run")
		return nil
	}
	if err != nil {
		return err
	}
	writePlan(c, plan, runner.CommandFromSettings(settings.Generator))
	return nil
}

func writePlan(c *cli, plan *runner.Plan, gen *runner.Command) {
	for _, ch := range plan.Env.Diff(plan.Base) {
		if ch.Removed {
			fmt.Fprintf(c.out, "unset %s\n", ch.Name)
			continue
		}
		fmt.Fprintf(c.out, "%s=%s\n", ch.Name, shellquote.Join(ch.New))
	}
	if dirs := plan.Result.RuntimeDirs; dirs != nil {
		fmt.Fprintf(c.out, "# runtime DLLs: x64 %s, x86 %s\n", dirs.X64, dirs.X86)
	}
	fmt.Fprintf(c.out, "cd %s\n", shellquote.Join(plan.Invocation.Dir))
	fmt.Fprintln(c.out, shellquote.Join(gen.Argv(plan.Invocation)...))
}
