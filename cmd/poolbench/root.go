package main

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "POOLBENCH"

// NewRootCommand builds the poolbench command. Flags may also be set through
// POOLBENCH_* environment variables or a TOML config file.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := defaultBenchOptions()

	rc := &cobra.Command{
		Use:   "poolbench",
		Short: "Drive a work-stealing pool with re-running tasks and report its counters.",
		Long: `poolbench spawns repeatable tasks that each re-run a fixed number of
times before completing, waits for the pool to drain and prints the
pool statistics. With --metrics-addr the Prometheus metrics of the run
are served until the command exits.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), opts, stdout)
		},
	}

	flags := rc.Flags()
	flags.StringP("config", "c", "", "Configuration file to read from.")
	flags.IntVar(&opts.Workers, "workers", opts.Workers, "Number of workers (0 means one per CPU).")
	flags.IntVar(&opts.SpinBudget, "spin-budget", opts.SpinBudget, "In-place re-runs before a task yields.")
	flags.IntVar(&opts.Tasks, "tasks", opts.Tasks, "Number of repeatable tasks to spawn.")
	flags.IntVar(&opts.Reruns, "reruns", opts.Reruns, "Re-runs each task requests before completing.")
	flags.IntVar(&opts.Capacity, "capacity", opts.Capacity, "Global queue capacity (0 means unbounded).")
	flags.StringVar(&opts.MetricsAddr, "metrics-addr", opts.MetricsAddr, "Serve Prometheus metrics on this address.")
	flags.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Give up waiting for the pool to drain after this long.")
	flags.BoolVar(&opts.Verbose, "verbose", opts.Verbose, "Log pool lifecycle at debug level.")

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setAllConfig applies, in priority order, command-line flags, POOLBENCH_*
// environment variables and the config file to every flag in flags.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file '%s'", c)
		}
		for _, key := range v.AllKeys() {
			if !validTags[key] {
				return errors.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			flagErr = errors.Wrapf(err, "setting %s", f.Name)
		}
	})
	return flagErr
}
