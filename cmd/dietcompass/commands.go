package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/internal/infrastructure/container"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/collections"
	"github.com/dietcompass/planner/internal/ports/inbound"
)

type options struct {
	configPath string
	household  string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "dietcompass",
		Short:         "Household meal plan reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.household, "household", "", "household id (default server.default_household)")

	root.AddCommand(
		newServeCommand(opts),
		newReconcileCommand(opts),
		newGenerateCommand(opts),
		newRequestCommand(opts),
		newGroupsCommand(opts),
		newScoreCommand(opts),
		newSeedCommand(opts),
	)
	return root
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.household == "" {
		o.household = cfg.Server.DefaultHousehold
	}
	return cfg, nil
}

// run starts the core application, fills targets and calls fn
func (o *options) run(ctx context.Context, fn func() error, targets ...interface{}) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}

	app := fx.New(container.Core(cfg), fx.Populate(targets...))
	if err := app.Start(ctx); err != nil {
		return err
	}
	runErr := fn()

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (o *options) print(v interface{}) error {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *options) progress(progress int, message string) {
	fmt.Fprintf(o.stderr, "[%3d%%] %s\n", progress, message)
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			app := fx.New(container.Module(cfg))
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
			case sig := <-app.Wait():
				if sig.ExitCode != 0 {
					defer os.Exit(sig.ExitCode)
				}
			}

			stopCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer stop()
			return app.Stop(stopCtx)
		},
	}
}

func newReconcileCommand(opts *options) *cobra.Command {
	var file, day string
	var stream bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a generator plan into the stored household plan",
		Long: "Reads a raw generator plan, or a generator frame stream with --stream, " +
			"and publishes the reconciled plan. --day merges a single regenerated day.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := openInput(file)
			if err != nil {
				return err
			}
			defer input.Close()

			mode := mealplan.ModeFullWeek
			if day != "" {
				mode = mealplan.ModeSingleDay
			}

			var planning inbound.PlanningService
			return opts.run(cmd.Context(), func() error {
				var outcome *inbound.ReconcileOutcome
				if stream {
					outcome, err = planning.ConsumeStream(cmd.Context(), inbound.StreamCommand{
						HouseholdID: opts.household,
						Mode:        mode,
						Date:        day,
					}, input, opts.progress)
				} else {
					raw, readErr := io.ReadAll(input)
					if readErr != nil {
						return readErr
					}
					outcome, err = planning.Reconcile(cmd.Context(), inbound.ReconcileCommand{
						HouseholdID: opts.household,
						RawPlan:     raw,
						Mode:        mode,
						Date:        day,
					})
				}
				if err != nil {
					return err
				}
				return opts.print(outcome)
			}, &planning)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "plan file, - reads stdin")
	cmd.Flags().StringVar(&day, "day", "", "regenerated date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&stream, "stream", false, "input is a generator frame stream")
	return cmd
}

func newGenerateCommand(opts *options) *cobra.Command {
	var day, base string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the meal generator for a plan and reconcile it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var planning inbound.PlanningService
			return opts.run(cmd.Context(), func() error {
				outcome, err := planning.Generate(cmd.Context(), inbound.GenerateCommand{
					BuildRequestCommand: inbound.BuildRequestCommand{
						HouseholdID:       opts.household,
						BaseSpecification: base,
						RegenerateDate:    day,
					},
				}, opts.progress)
				if err != nil {
					return err
				}
				return opts.print(outcome)
			}, &planning)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "regenerate only this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&base, "spec", "", "base plan specification passed to the generator")
	return cmd
}

func newRequestCommand(opts *options) *cobra.Command {
	var day, base string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Print the generation request without calling the generator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var planning inbound.PlanningService
			return opts.run(cmd.Context(), func() error {
				req, err := planning.BuildRequest(cmd.Context(), inbound.BuildRequestCommand{
					HouseholdID:       opts.household,
					BaseSpecification: base,
					RegenerateDate:    day,
				})
				if err != nil {
					return err
				}
				return opts.print(req)
			}, &planning)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "regenerate only this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&base, "spec", "", "base plan specification")
	return cmd
}

func newGroupsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Print the household diet groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var households inbound.HouseholdService
			return opts.run(cmd.Context(), func() error {
				view, err := households.Groups(cmd.Context(), opts.household)
				if err != nil {
					return err
				}
				return opts.print(view)
			}, &households)
		},
	}
}

func newScoreCommand(opts *options) *cobra.Command {
	var recipeID string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a stored recipe against the health table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var recipes inbound.RecipeService
			return opts.run(cmd.Context(), func() error {
				view, err := recipes.Score(cmd.Context(), opts.household, recipeID)
				if err != nil {
					return err
				}
				return opts.print(view)
			}, &recipes)
		},
	}
	cmd.Flags().StringVar(&recipeID, "recipe", "", "recipe id")
	_ = cmd.MarkFlagRequired("recipe")
	return cmd
}

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled reference data into empty collections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var seeder *collections.Seeder
			return opts.run(cmd.Context(), func() error {
				report, err := seeder.Seed(cmd.Context(), opts.household)
				if err != nil {
					return err
				}
				return opts.print(report)
			}, &seeder)
		},
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan: %w", err)
	}
	return f, nil
}
