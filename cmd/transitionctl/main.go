// Command transitionctl works with YAML transition definitions.
//
//	transitionctl render   -f switch.yaml [-direction LR] [-highlight on,off]
//	transitionctl validate -f switch.yaml
//	transitionctl simulate -f switch.yaml
//
// simulate builds the definitions against placeholder callables and lets the
// user invoke transitions one at a time. Guards ask for confirmation and
// hooks print their name.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-transition/cli"
	"github.com/amp-labs/amp-transition/telemetry"
	"github.com/amp-labs/amp-transition/transition"
	"github.com/amp-labs/amp-transition/transition/visualizer"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	quitChoice = "[quit]"
)

var errUsage = errors.New("usage: transitionctl <render|validate|simulate> -f <definitions.yaml>")

// prompter is the interactive surface simulate needs.
type prompter interface {
	Confirm(label string) (bool, error)
	Choose(label string, items []string) (string, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, cli.NewPrompter())

	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, p prompter) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, errUsage)

		return exitUsage
	}

	telCfg, err := telemetry.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)

		return exitError
	}

	tel, err := telemetry.Initialize(ctx, telCfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)

		return exitError
	}

	log := tel.Logger()

	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to shut down telemetry", "error", err)
		}
	}()

	err = dispatch(ctx, args[0], args[1:], stdout, log, p)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		_, _ = fmt.Fprintln(stderr, err)

		return exitUsage
	default:
		log.Error("transitionctl failed", "command", args[0], "error", err)

		return exitError
	}
}

func dispatch(
	ctx context.Context, command string, args []string, stdout io.Writer, log *slog.Logger, p prompter,
) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	file := fs.String("f", "", "path to the definitions YAML file")
	direction := fs.String("direction", "TB", "diagram direction (render)")
	highlight := fs.String("highlight", "", "comma-separated states to highlight (render)")
	names := fs.Bool("names", true, "label edges with transition names (render)")
	guards := fs.Bool("guards", true, "label edges with guard names (render)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	if *file == "" {
		return errUsage
	}

	defs, err := transition.LoadDefinitions(*file)
	if err != nil {
		return err
	}

	switch command {
	case "render":
		opts := visualizer.DefaultOptions().
			WithDirection(*direction).
			WithShowNames(*names).
			WithShowGuards(*guards)

		if *highlight != "" {
			opts = opts.WithHighlightStates(strings.Split(*highlight, ","))
		}

		diagram, err := visualizer.GenerateMermaidFromDefinitions(defs, opts)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(stdout, diagram)

		return err
	case "validate":
		return validate(defs, stdout)
	case "simulate":
		cfg, err := transition.LoadConfig()
		if err != nil {
			return err
		}

		exec := transition.NewExecutorFromConfig(cfg,
			append(defs.ExecutorOptions(), transition.WithLogger[string](transition.NewSlogLogger(log)))...)

		return simulate(ctx, defs, exec, p, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func validate(defs *transition.Definitions, stdout io.Writer) error {
	specs, err := defs.Build(placeholderRegistry(defs, nil, io.Discard))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "%s: %d transitions, default state %q\n", defs.Name, len(specs), defs.DefaultState)

	for _, name := range sortedNames(specs) {
		_, _ = fmt.Fprintf(stdout, "  %s\n", specs[name])
	}

	return nil
}

func simulate(
	ctx context.Context,
	defs *transition.Definitions,
	exec *transition.Executor[string],
	p prompter,
	out io.Writer,
) error {
	specs, err := defs.Build(placeholderRegistry(defs, p, out))
	if err != nil {
		return err
	}

	m := transition.NewMachine(transition.WithID[string](defs.Name))
	items := append(sortedNames(specs), quitChoice)

	for {
		state := exec.DefaultState()
		if m.Initialized() {
			state = m.State()
		}

		_, _ = fmt.Fprintln(out, cli.StateBanner(defs.Name, state))

		choice, err := p.Choose("Transition", items)
		if err != nil {
			return err
		}

		if choice == quitChoice {
			return nil
		}

		next, err := exec.Invoke(ctx, m, specs[choice])
		if err != nil {
			_, _ = fmt.Fprintf(out, "%s failed: %v\n", choice, err)

			continue
		}

		if next == state {
			_, _ = fmt.Fprintf(out, "%s: no change\n", choice)
		}
	}
}

// placeholderRegistry registers a stand-in for every name the definitions
// reference. Guards ask p, or allow everything when p is nil. Hooks and
// actions print their name to out.
func placeholderRegistry(defs *transition.Definitions, p prompter, out io.Writer) *transition.Registry[string] {
	reg := transition.NewRegistry[string]()

	printer := func(kind, name string) transition.Hook[string] {
		return func(context.Context, *transition.Machine[string], ...any) error {
			_, err := fmt.Fprintf(out, "  %s: %s\n", kind, name)

			return err
		}
	}

	for _, td := range defs.Transitions {
		if td.Guard != "" {
			label := fmt.Sprintf("Guard %s allows the transition", td.Guard)
			reg.RegisterGuard(td.Guard, func(context.Context, *transition.Machine[string], ...any) (bool, error) {
				if p == nil {
					return true, nil
				}

				return p.Confirm(label)
			})
		}

		for _, name := range []string{td.Enter, td.Exit, td.Before, td.After} {
			if name != "" {
				reg.RegisterHook(name, printer("hook", name))
			}
		}

		if td.Action != "" {
			reg.RegisterAction(td.Action, transition.Action[string](printer("action", td.Action)))
		}
	}

	return reg
}

func sortedNames(specs map[string]*transition.Spec[string]) []string {
	names := slices.Collect(maps.Keys(specs))
	natsort.Sort(names)

	return names
}
