// Package tables reads the row-oriented input files: the decomposition
// table, the stop-radical list, the equivalence table and evaluator test
// cases. All readers work over a hackpadfs.FS so tests can use an
// in-memory filesystem.
package tables

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/hack-pad/hackpadfs"
	"golang.org/x/text/unicode/norm"

	"github.com/kittclouds/glyphsim/internal/logging"
	"github.com/kittclouds/glyphsim/pkg/decomp"
	"github.com/kittclouds/glyphsim/pkg/evaluate"
)

// EquivalenceHeaderRows is the number of leading rows of the equivalence
// file that carry no mappings.
const EquivalenceHeaderRows = 17

const maxLineSize = 1 << 20

// ErrSyntax is wrapped by every row-level parse failure.
var ErrSyntax = errors.New("syntax error")

// Reader loads tables from FS. Paths follow io/fs rules (slash separated,
// no leading slash).
type Reader struct {
	FS hackpadfs.FS

	// Normalize applies Unicode NFC to every identifier read.
	Normalize bool
}

// New returns a Reader over fsys.
func New(fsys hackpadfs.FS, normalize bool) *Reader {
	return &Reader{FS: fsys, Normalize: normalize}
}

func (r *Reader) id(s string) string {
	s = strings.TrimSpace(s)
	if r.Normalize {
		return norm.NFC.String(s)
	}
	return s
}

func (r *Reader) ids(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = r.id(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// scan calls fn for every row of path with its 1-based line number.
// Blank rows are passed through; callers decide whether to skip them.
func (r *Reader) scan(path string, fn func(n int, line string) error) error {
	f, err := r.FS.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	n := 0
	for sc.Scan() {
		n++
		if err := fn(n, sc.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// Decomposition reads rows of the form `char:op(c1,c2)`. The component
// list may be empty.
func (r *Reader) Decomposition(path string) (decomp.Table, error) {
	table := decomp.Table{}
	err := r.scan(path, func(_ int, line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		char, entry, err := r.parseDecomposition(line)
		if err != nil {
			return err
		}
		table[char] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("decomposition table loaded", "path", path, "characters", len(table))
	return table, nil
}

func (r *Reader) parseDecomposition(line string) (string, decomp.Entry, error) {
	char, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", decomp.Entry{}, fmt.Errorf("%w: missing ':' in %q", ErrSyntax, line)
	}
	open := strings.IndexByte(rest, '(')
	closing := strings.LastIndexByte(rest, ')')
	if open < 0 || closing < open {
		return "", decomp.Entry{}, fmt.Errorf("%w: missing component list in %q", ErrSyntax, line)
	}
	char = r.id(char)
	if char == "" {
		return "", decomp.Entry{}, fmt.Errorf("%w: empty character in %q", ErrSyntax, line)
	}
	entry := decomp.Entry{Operator: strings.TrimSpace(rest[:open])}
	if list := rest[open+1 : closing]; list != "" {
		entry.Children = r.ids(strings.Split(list, ","))
	}
	return char, entry, nil
}

// StopRadicals reads the first comma separated field of every row.
func (r *Reader) StopRadicals(path string) (decomp.StopSet, error) {
	stops := decomp.StopSet{}
	err := r.scan(path, func(_ int, line string) error {
		first, _, _ := strings.Cut(line, ",")
		if c := r.id(first); c != "" {
			stops[c] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stops, nil
}

// Equivalence reads the tab separated equivalence file. The first
// EquivalenceHeaderRows rows are skipped; afterwards column 0 is the source
// character and column 2 a comma separated list of targets.
func (r *Reader) Equivalence(path string) (map[string][]string, error) {
	pairs := map[string][]string{}
	err := r.scan(path, func(n int, line string) error {
		if n <= EquivalenceHeaderRows || strings.TrimSpace(line) == "" {
			return nil
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 3 {
			return fmt.Errorf("%w: want 3 tab separated columns, got %d", ErrSyntax, len(cols))
		}
		src := r.id(cols[0])
		if src == "" {
			return fmt.Errorf("%w: empty source character", ErrSyntax)
		}
		pairs[src] = append(pairs[src], r.ids(strings.Split(cols[2], ","))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

// TestCases reads `char,ref1,ref2,...` rows. Reference order is kept.
func (r *Reader) TestCases(path string) ([]evaluate.TestCase, error) {
	var cases []evaluate.TestCase
	err := r.scan(path, func(_ int, line string) error {
		fields := r.ids(strings.Split(line, ","))
		if len(fields) == 0 {
			return nil
		}
		cases = append(cases, evaluate.TestCase{Character: fields[0], References: fields[1:]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cases, nil
}
