// Command glyphsim ranks characters by visual similarity of their
// decompositions and evaluates the ranking against labelled test cases.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	hpos "github.com/hack-pad/hackpadfs/os"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kittclouds/glyphsim/internal/app"
	"github.com/kittclouds/glyphsim/internal/config"
	"github.com/kittclouds/glyphsim/internal/logging"
	"github.com/kittclouds/glyphsim/internal/publish"
	"github.com/kittclouds/glyphsim/internal/store"
	"github.com/kittclouds/glyphsim/pkg/evaluate"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"decomp":          "decomp",
	"radicals":        "radicals",
	"equivalence":     "equivalence",
	"testcases":       "testcases",
	"output":          "output",
	"cutoff":          "cutoff",
	"threads":         "threads",
	"use-equivalence": "use_equivalence",
	"use-index":       "use_index",
	"normalize":       "normalize",
	"store":           "store",
	"redis-addr":      "redis.addr",
	"redis-password":  "redis.password",
	"redis-db":        "redis.db",
	"redis-prefix":    "redis.prefix",
	"log-level":       "log_level",
	"progress":        "progress",
}

type globalFlags struct {
	configFile string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:          "glyphsim",
		Short:        "Rank characters by shared, positioned components",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "config file (yaml, json or toml)")
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file, ignored when missing")
	pf.String("decomp", "", "decomposition table")
	pf.String("radicals", "", "stop radical list")
	pf.String("equivalence", "", "Japanese to simplified Chinese equivalence table")
	pf.Bool("use-equivalence", false, "score equivalent characters as near identical")
	pf.Bool("normalize", false, "NFC-normalize identifiers when reading tables")
	pf.String("store", "", "SQLite DSN recording runs and results")
	pf.String("log-level", config.DefaultLogLevel, "debug, info, warn or error")

	root.AddCommand(newCreateCmd(&g), newEvaluateCmd(&g))
	return root
}

func newCreateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write the similarity ranking of every character",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeFn, err := setup(cmd, g, "create")
			if err != nil {
				return err
			}
			defer closeFn()

			in, err := a.Load()
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if a.Config.Progress {
				bar = newBar(cmd.ErrOrStderr(), int64(len(in.Universe)))
				a.Progress = func(int64, int64) { bar.Add(1) }
			}
			run, err := a.Create(in)
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: ranked %d characters in %s (%d malformed skipped)\n",
				run.ID, run.Processed(), run.Duration().Round(time.Millisecond), len(in.Malformed))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("output", "", "ranking output file")
	f.Int("cutoff", config.DefaultCutoff, "maximum similar characters per entry")
	f.Int("threads", config.DefaultThreads, "worker count")
	f.Bool("use-index", false, "score only characters sharing a component")
	f.Bool("progress", true, "show a progress bar")
	f.String("redis-addr", "", "publish rankings to this Redis server")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database")
	f.String("redis-prefix", publish.DefaultPrefix, "Redis key prefix")
	return cmd
}

func newEvaluateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the ranking against hand-labelled test cases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeFn, err := setup(cmd, g, "evaluate")
			if err != nil {
				return err
			}
			defer closeFn()

			in, err := a.Load()
			if err != nil {
				return err
			}
			rep, err := a.Evaluate(in)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().String("testcases", "", "test case file")
	return cmd
}

// setup loads configuration, installs the logger and opens optional outputs.
func setup(cmd *cobra.Command, g *globalFlags, command string) (*app.App, func(), error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if fl := cmd.Flags().Lookup(flag); fl != nil {
			if err := v.BindPFlag(key, fl); err != nil {
				return nil, nil, err
			}
		}
	}
	cfg, err := config.Load(v, g.configFile, g.envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(command); err != nil {
		return nil, nil, err
	}
	logging.SetLogger(logging.New(cmd.ErrOrStderr(), cfg.LogLevel))

	osfs := hpos.NewFS()
	for _, p := range []*string{&cfg.Decomp, &cfg.Radicals, &cfg.Equivalence, &cfg.TestCases, &cfg.Output} {
		if *p == "" {
			continue
		}
		if *p, err = fsPath(osfs, *p); err != nil {
			return nil, nil, err
		}
	}

	a := &app.App{Config: cfg, FS: osfs}
	var closers []func() error
	if cfg.Store != "" {
		st, err := store.NewSQLiteStoreWithDSN(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		a.Store = st
		closers = append(closers, st.Close)
	}
	if command == "create" && cfg.Redis.Addr != "" {
		a.Redis = publish.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		closers = append(closers, a.Redis.Close)
	}
	closeFn := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logging.Logger().Warn("close failed", "err", err)
			}
		}
	}
	return a, closeFn, nil
}

// fsPath turns an OS path into a path on the root hackpadfs filesystem.
func fsPath(osfs *hpos.FS, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return osfs.FromOSPath(abs)
}

func newBar(w io.Writer, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("ranking"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("chars"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func printReport(w io.Writer, rep evaluate.Report) {
	for _, c := range rep.Cases {
		fmt.Fprintf(w, "%s\t%s\n", c.Character, strings.Join(c.Top, ""))
		for _, r := range c.References {
			if r.Position == evaluate.NotRanked {
				fmt.Fprintf(w, "\t%s\t-\n", r.Character)
				continue
			}
			fmt.Fprintf(w, "\t%s\t%d\n", r.Character, r.Position)
		}
	}
	for _, err := range rep.Skipped {
		fmt.Fprintf(w, "skipped: %v\n", err)
	}
	fmt.Fprintf(w, "cases: %d  references: %d  found: %d\n", len(rep.Cases), rep.References, rep.Found)
	fmt.Fprintf(w, "mean reciprocal rank: %.6f\n", rep.MeanReciprocal)
	fmt.Fprintf(w, "mean position: %.2f\n", rep.MeanPosition)
	fmt.Fprintf(w, "under %d: %.2f%%\n", evaluate.DefaultThreshold, 100*rep.UnderThreshold)
	fmt.Fprintf(w, "elapsed: %s\n", rep.Elapsed.Round(time.Millisecond))
}
