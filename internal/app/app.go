// Package app wires table loading, scoring, ranking and evaluation
// together with the configured outputs. The CLI is a thin shell around it.
package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hack-pad/hackpadfs"
	"github.com/redis/go-redis/v9"

	"github.com/kittclouds/glyphsim/internal/config"
	"github.com/kittclouds/glyphsim/internal/logging"
	"github.com/kittclouds/glyphsim/internal/publish"
	"github.com/kittclouds/glyphsim/internal/store"
	"github.com/kittclouds/glyphsim/internal/tables"
	"github.com/kittclouds/glyphsim/pkg/decomp"
	"github.com/kittclouds/glyphsim/pkg/evaluate"
	"github.com/kittclouds/glyphsim/pkg/ranking"
	"github.com/kittclouds/glyphsim/pkg/similarity"
)

// App runs the create and evaluate commands. Paths in Config are FS paths.
type App struct {
	Config config.Config
	FS     hackpadfs.FS

	// Optional outputs.
	Store store.Storer
	Redis *redis.Client

	// Progress receives ranking progress; may be nil.
	Progress func(done, total int64)
}

// Inputs holds everything derived from the tables for one run.
type Inputs struct {
	Flattened   decomp.Flattened
	Malformed   []error
	Equivalence *similarity.Equivalence
	Scorer      *similarity.Scorer
	Universe    []string
}

// Load reads the tables and builds the scorer. Read failures are fatal.
func (a *App) Load() (*Inputs, error) {
	log := logging.Logger()
	r := tables.New(a.FS, a.Config.Normalize)

	table, err := r.Decomposition(a.Config.Decomp)
	if err != nil {
		return nil, fmt.Errorf("decomposition table: %w", err)
	}
	stops, err := r.StopRadicals(a.Config.Radicals)
	if err != nil {
		return nil, fmt.Errorf("stop radicals: %w", err)
	}

	var eq *similarity.Equivalence
	if a.Config.UseEquivalence {
		rows, err := r.Equivalence(a.Config.Equivalence)
		if err != nil {
			return nil, fmt.Errorf("equivalence table: %w", err)
		}
		eq = similarity.NewEquivalence(rows)
	}

	flat, malformed := decomp.NewFlattener(table, stops).FlattenAll()
	in := &Inputs{
		Flattened:   flat,
		Malformed:   malformed,
		Equivalence: eq,
		Scorer:      similarity.NewScorer(flat, eq),
		Universe:    flat.Characters(),
	}
	log.Info("tables loaded",
		"characters", len(table),
		"flattened", len(flat),
		"malformed", len(malformed),
		"stopRadicals", len(stops),
		"equivalences", eq.Len(),
	)
	return in, nil
}

// Known reports whether c has a flattened decomposition.
func (in *Inputs) Known(c string) bool {
	_, ok := in.Flattened[c]
	return ok
}

// Create ranks the whole universe and writes the ranking file, plus the
// store and Redis when configured.
func (a *App) Create(in *Inputs) (*ranking.Run, error) {
	runID := uuid.NewString()

	f, err := hackpadfs.OpenFile(a.FS, a.Config.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	lines := ranking.NewLineSink(fileWriter{f})
	sinks := ranking.MultiSink{lines}

	if a.Store != nil {
		err := a.Store.CreateRun(&store.Run{
			ID:         runID,
			Command:    "create",
			Cutoff:     a.Config.Cutoff,
			Threads:    a.Config.Threads,
			Characters: len(in.Universe),
			StartedAt:  time.Now().UnixMilli(),
		})
		if err != nil {
			lines.Close()
			return nil, err
		}
		sinks = append(sinks, store.NewRankingSink(a.Store, runID))
	}
	if a.Redis != nil {
		sinks = append(sinks, publish.NewRedisSink(a.Redis, a.Config.Redis.Prefix, runID))
	}

	engine := &ranking.Engine{
		Universe: in.Universe,
		Scorer:   in.Scorer,
		Cutoff:   a.Config.Cutoff,
		Threads:  a.Config.Threads,
		Progress: a.Progress,
		RunID:    runID,
	}
	if a.Config.UseIndex {
		engine.Index = similarity.NewIndex(in.Universe, in.Flattened, in.Equivalence)
	}

	run, runErr := engine.Run(sinks)
	// workers are done; only now is the file flushed
	if err := lines.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("write output: %w", err)
	}
	if a.Store != nil && run != nil {
		if err := a.Store.FinishRun(runID, run.Processed(), time.Now().UnixMilli(), runErr); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return run, runErr
}

// Evaluate scores the configured test cases.
func (a *App) Evaluate(in *Inputs) (evaluate.Report, error) {
	r := tables.New(a.FS, a.Config.Normalize)
	cases, err := r.TestCases(a.Config.TestCases)
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("test cases: %w", err)
	}

	runID := uuid.NewString()
	if a.Store != nil {
		err := a.Store.CreateRun(&store.Run{
			ID:         runID,
			Command:    "evaluate",
			Threads:    1,
			Characters: len(in.Universe),
			StartedAt:  time.Now().UnixMilli(),
		})
		if err != nil {
			return evaluate.Report{}, err
		}
	}

	rep := evaluate.New(in.Universe, in.Known, in.Scorer).Evaluate(cases)

	if a.Store != nil {
		now := time.Now().UnixMilli()
		if err := a.Store.PutEvaluation(store.NewEvaluation(runID, rep, now)); err != nil {
			return rep, err
		}
		if err := a.Store.FinishRun(runID, int64(len(rep.Cases)), now, nil); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// fileWriter adapts a hackpadfs.File to io.WriteCloser.
type fileWriter struct {
	f hackpadfs.File
}

func (w fileWriter) Write(p []byte) (int, error) {
	return hackpadfs.WriteFile(w.f, p)
}

func (w fileWriter) Close() error {
	return w.f.Close()
}
