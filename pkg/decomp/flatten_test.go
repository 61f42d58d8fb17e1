package decomp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf() Entry { return Entry{Operator: "c"} }

func flattenOne(t *testing.T, table Table, stops StopSet, character string) []Component {
	t.Helper()
	comps, err := NewFlattener(table, stops).Flatten(character, Unit)
	require.NoError(t, err)
	return comps
}

func TestFlatten_StopRadicalIsTerminal(t *testing.T) {
	table := Table{
		"好": {Operator: "a", Children: []string{"女", "子"}},
		"女": leaf(),
		"子": leaf(),
	}
	comps := flattenOne(t, table, NewStopSet("好"), "好")

	require.Len(t, comps, 1)
	assert.Equal(t, Component{ID: "好", X: 0.5, Y: 0.5}, comps[0])
}

func TestFlatten_NoChildrenIsTerminal(t *testing.T) {
	comps := flattenOne(t, Table{"一": leaf()}, nil, "一")
	assert.Equal(t, []Component{{ID: "一", X: 0.5, Y: 0.5}}, comps)
}

func TestFlatten_UnknownCharacterIsTerminal(t *testing.T) {
	comps := flattenOne(t, Table{}, nil, "乙")
	assert.Equal(t, []Component{{ID: "乙", X: 0.5, Y: 0.5}}, comps)
}

func TestFlatten_HorizontalSplit(t *testing.T) {
	table := Table{
		"X": {Operator: "a", Children: []string{"A", "B"}},
		"A": leaf(),
		"B": leaf(),
	}
	comps := flattenOne(t, table, nil, "X")

	require.Len(t, comps, 2)
	assert.Equal(t, Component{ID: "A", X: 0.25, Y: 0.5}, comps[0])
	assert.Equal(t, Component{ID: "B", X: 0.75, Y: 0.5}, comps[1])
}

func TestFlatten_VerticalSplit(t *testing.T) {
	table := Table{
		"X": {Operator: "d", Children: []string{"A", "B"}},
	}
	comps := flattenOne(t, table, nil, "X")

	require.Len(t, comps, 2)
	assert.Equal(t, Component{ID: "A", X: 0.5, Y: 0.75}, comps[0])
	assert.Equal(t, Component{ID: "B", X: 0.5, Y: 0.25}, comps[1])
}

func TestFlatten_NestedSplits(t *testing.T) {
	// left half split again top/bottom
	table := Table{
		"X": {Operator: "a", Children: []string{"L", "R"}},
		"L": {Operator: "d", Children: []string{"T", "U"}},
	}
	comps := flattenOne(t, table, nil, "X")

	require.Len(t, comps, 3)
	assert.Equal(t, Component{ID: "T", X: 0.25, Y: 0.75}, comps[0])
	assert.Equal(t, Component{ID: "U", X: 0.25, Y: 0.25}, comps[1])
	assert.Equal(t, Component{ID: "R", X: 0.75, Y: 0.5}, comps[2])
}

func TestFlatten_Surround(t *testing.T) {
	tests := []struct {
		op   string
		x, y float64
	}{
		{"stl", 0.75, 0.25},
		{"sbl", 0.75, 0.75},
		{"str", 0.25, 0.25},
		{"sbr", 0.25, 0.75},
		{"sl", 0.75, 0.5},
		{"sr", 0.25, 0.5},
		{"st", 0.5, 0.25},
		{"sb", 0.5, 0.75},
		{"s", 0.5, 0.5},
		{"sx", 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			table := Table{"X": {Operator: tt.op, Children: []string{"O", "I"}}}
			comps := flattenOne(t, table, nil, "X")

			require.Len(t, comps, 2)
			assert.Equal(t, Component{ID: "O", X: 0.5, Y: 0.5}, comps[0], "enclosing child keeps the full box")
			assert.InDelta(t, tt.x, comps[1].X, 1e-9)
			assert.InDelta(t, tt.y, comps[1].Y, 1e-9)
		})
	}
}

func TestFlatten_SameBoxFamilies(t *testing.T) {
	for _, op := range []string{"w", "wtl", "b", "bd", "lock", "lockx", "zzz"} {
		t.Run(op, func(t *testing.T) {
			table := Table{"X": {Operator: op, Children: []string{"A", "B"}}}
			comps := flattenOne(t, table, nil, "X")

			assert.Equal(t, []Component{
				{ID: "A", X: 0.5, Y: 0.5},
				{ID: "B", X: 0.5, Y: 0.5},
			}, comps)
		})
	}
}

func TestFlatten_ModifierKeepsBox(t *testing.T) {
	table := Table{
		"X": {Operator: "a", Children: []string{"M", "B"}},
		"M": {Operator: "m", Children: []string{"A"}},
	}
	comps := flattenOne(t, table, nil, "X")

	require.Len(t, comps, 2)
	assert.Equal(t, Component{ID: "A", X: 0.25, Y: 0.5}, comps[0])
}

func TestFlatten_Repeat(t *testing.T) {
	tests := []struct {
		op   string
		want int
	}{
		{"r", 1},
		{"r2", 2},
		{"r3", 3},
		{"r4x", 4},
		{"rr", 2},
		{"ra", 2},
		{"rd", 2},
		{"rst", 2},
		{"rot", 1},
		{"rs", 1},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			table := Table{"X": {Operator: tt.op, Children: []string{"C"}}}
			comps := flattenOne(t, table, nil, "X")

			require.Len(t, comps, tt.want)
			for _, c := range comps {
				assert.Equal(t, Component{ID: "C", X: 0.5, Y: 0.5}, c)
			}
		})
	}
}

func TestFlatten_RepeatInsideSplitSharesCenters(t *testing.T) {
	table := Table{
		"X": {Operator: "a", Children: []string{"P", "B"}},
		"P": {Operator: "r2", Children: []string{"C"}},
	}
	comps := flattenOne(t, table, nil, "X")

	require.Len(t, comps, 3)
	assert.Equal(t, comps[0], comps[1])
	assert.Equal(t, Component{ID: "C", X: 0.25, Y: 0.5}, comps[0])
}

func TestFlatten_AtomicWithChildrenIsMalformed(t *testing.T) {
	table := Table{
		"X": {Operator: "a", Children: []string{"Y", "B"}},
		"Y": {Operator: "c", Children: []string{"Z"}},
	}
	_, err := NewFlattener(table, nil).Flatten("X", Unit)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	var me *MalformedError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "X", me.Character)
	assert.Equal(t, "Y", me.Component)
}

func TestFlatten_MissingConstituentsIsMalformed(t *testing.T) {
	for _, op := range []string{"a", "d", "stl"} {
		table := Table{"X": {Operator: op, Children: []string{"A"}}}
		_, err := NewFlattener(table, nil).Flatten("X", Unit)
		assert.ErrorIs(t, err, ErrMalformed, op)
	}
}

func TestFlatten_CycleIsMalformed(t *testing.T) {
	table := Table{
		"X": {Operator: "a", Children: []string{"Y", "B"}},
		"Y": {Operator: "m", Children: []string{"X"}},
	}
	_, err := NewFlattener(table, nil).Flatten("X", Unit)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFlattenAll_IsolatesMalformed(t *testing.T) {
	table := Table{
		"好": {Operator: "a", Children: []string{"女", "子"}},
		"女": leaf(),
		"子": leaf(),
		"坏": {Operator: "c", Children: []string{"土"}},
	}
	flat, errs := NewFlattener(table, nil).FlattenAll()

	require.Len(t, errs, 1)
	assert.NotContains(t, flat, "坏")
	assert.Contains(t, flat, "好")
	assert.Contains(t, flat, "女")
	assert.Contains(t, flat, "子")
	assert.Len(t, flat, 3)
}

func TestFlattenAll_SortsByComponent(t *testing.T) {
	table := Table{
		"X": {Operator: "a", Children: []string{"Z", "Y"}},
		"Y": {Operator: "d", Children: []string{"B", "A"}},
	}
	flat, errs := NewFlattener(table, nil).FlattenAll()
	require.Empty(t, errs)

	ids := make([]string, 0, len(flat["X"]))
	for _, c := range flat["X"] {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"A", "B", "Z"}, ids)
}

func TestSortComponents_Stable(t *testing.T) {
	comps := []Component{
		{ID: "b", X: 1},
		{ID: "a", X: 1},
		{ID: "b", X: 2},
		{ID: "a", X: 2},
	}
	SortComponents(comps)
	assert.Equal(t, []Component{
		{ID: "a", X: 1},
		{ID: "a", X: 2},
		{ID: "b", X: 1},
		{ID: "b", X: 2},
	}, comps)
}

func TestFlattened_Characters(t *testing.T) {
	f := Flattened{"b": nil, "a": nil, "c": nil}
	assert.Equal(t, []string{"a", "b", "c"}, f.Characters())
}
