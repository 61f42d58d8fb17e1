package app

import (
	"sort"
	"strings"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/glyphsim/internal/config"
	"github.com/kittclouds/glyphsim/internal/store"
	"github.com/kittclouds/glyphsim/internal/tables"
)

const decompTable = `好:a(女,子)
妈:a(女,马)
吗:a(口,马)
字:d(宀,子)
亚:c()
亜:c()
坏:c(土)
`

func newApp(t *testing.T, mutate func(c *config.Config)) *App {
	t.Helper()
	fs, err := mem.NewFS()
	require.NoError(t, err)

	equivalence := strings.Repeat("#\n", tables.EquivalenceHeaderRows) + "亜\tx\t亚\n"
	files := map[string]string{
		"decomp.txt":      decompTable,
		"radicals.txt":    "女\n子\n",
		"equivalence.txt": equivalence,
		"cases.txt":       "妈,好,吗\n坏,好\n",
	}
	for name, content := range files {
		require.NoError(t, hackpadfs.WriteFullFile(fs, name, []byte(content), 0o644))
	}

	cfg := config.Config{
		Decomp:      "decomp.txt",
		Radicals:    "radicals.txt",
		Equivalence: "equivalence.txt",
		TestCases:   "cases.txt",
		Output:      "out.txt",
		Cutoff:      config.DefaultCutoff,
		Threads:     3,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &App{Config: cfg, FS: fs}
}

func readLines(t *testing.T, a *App) []string {
	t.Helper()
	data, err := hackpadfs.ReadFile(a.FS, a.Config.Output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	sort.Strings(lines)
	return lines
}

func TestLoad_SkipsMalformed(t *testing.T) {
	a := newApp(t, nil)
	in, err := a.Load()
	require.NoError(t, err)

	assert.Len(t, in.Malformed, 1)
	assert.False(t, in.Known("坏"))
	assert.True(t, in.Known("好"))
	assert.Equal(t, []string{"亚", "亜", "吗", "好", "妈", "字"}, in.Universe)
	assert.Nil(t, in.Equivalence)
}

func TestLoad_MissingTable(t *testing.T) {
	a := newApp(t, func(c *config.Config) { c.Decomp = "missing.txt" })
	_, err := a.Load()
	assert.Error(t, err)
}

func TestCreate_WritesEveryCharacter(t *testing.T) {
	a := newApp(t, nil)
	in, err := a.Load()
	require.NoError(t, err)

	run, err := a.Create(in)
	require.NoError(t, err)
	assert.Equal(t, int64(len(in.Universe)), run.Processed())

	lines := readLines(t, a)
	require.Len(t, lines, len(in.Universe))
	assert.Contains(t, lines, "亚;")
	assert.Contains(t, lines, "亜;")
	for _, l := range lines {
		if strings.HasPrefix(l, "妈;") {
			assert.ElementsMatch(t, []string{"好", "吗"}, strings.Split(strings.TrimPrefix(l, "妈;"), ","))
		}
	}
}

func TestCreate_EquivalenceAndIndex(t *testing.T) {
	a := newApp(t, func(c *config.Config) {
		c.UseEquivalence = true
		c.UseIndex = true
	})
	in, err := a.Load()
	require.NoError(t, err)
	require.NotNil(t, in.Equivalence)

	_, err = a.Create(in)
	require.NoError(t, err)

	lines := readLines(t, a)
	assert.Contains(t, lines, "亚;亜")
	assert.Contains(t, lines, "亜;亚")
}

func TestCreate_RecordsRunInStore(t *testing.T) {
	a := newApp(t, nil)
	st := store.NewMemStore()
	a.Store = st
	in, err := a.Load()
	require.NoError(t, err)

	run, err := a.Create(in)
	require.NoError(t, err)

	rec, err := st.GetRun(run.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, store.StatusDone, rec.Status)
	assert.Equal(t, "create", rec.Command)
	assert.Equal(t, int64(len(in.Universe)), rec.Processed)

	n, err := st.CountRankings(run.ID)
	require.NoError(t, err)
	assert.Equal(t, len(in.Universe), n)
}

func TestEvaluate(t *testing.T) {
	a := newApp(t, nil)
	st := store.NewMemStore()
	a.Store = st
	in, err := a.Load()
	require.NoError(t, err)

	rep, err := a.Evaluate(in)
	require.NoError(t, err)

	require.Len(t, rep.Cases, 1)
	require.Len(t, rep.Skipped, 1, "malformed character is skipped")
	assert.Equal(t, 2, rep.References)
	assert.Equal(t, 2, rep.Found)
	assert.Equal(t, 1.0, rep.UnderThreshold)
}
