package jsonval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil vs nil", nil, nil, true},
		{"nil vs typed nil map", nil, map[string]any(nil), true},
		{"nil vs empty map", nil, map[string]any{}, false},
		{"nil vs empty slice", nil, []any{}, false},
		{"strings", "Done", "Done", true},
		{"different strings", "Done", "NotStarted", false},
		{"string vs number", "1", 1, false},
		{"int vs float", 1, 1.0, true},
		{"json number vs float", json.Number("2.5"), 2.5, true},
		{"int64 vs uint8", int64(7), uint8(7), true},
		{"bools", true, false, false},
		{
			"maps ignore key order",
			map[string]any{"a": 1.0, "b": []any{"x", "y"}},
			map[string]any{"b": []any{"x", "y"}, "a": 1.0},
			true,
		},
		{
			"slices keep order",
			[]any{"x", "y"},
			[]any{"y", "x"},
			false,
		},
		{
			"nested difference",
			map[string]any{"photos": []any{map[string]any{"url": "a"}}},
			map[string]any{"photos": []any{map[string]any{"url": "b"}}},
			false,
		},
		{
			"typed map vs generic map",
			map[string]string{"k": "v"},
			map[string]any{"k": "v"},
			true,
		},
		{
			"typed slice vs generic slice",
			[]string{"a", "b"},
			[]any{"a", "b"},
			true,
		},
		{"map vs slice", map[string]any{}, []any{}, false},
		{"missing key", map[string]any{"a": nil}, map[string]any{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Equal(tc.a, tc.b))
			require.Equal(t, tc.want, Equal(tc.b, tc.a))
		})
	}
}

func TestKindOf(t *testing.T) {
	require.Equal(t, Null, KindOf(nil))
	require.Equal(t, Null, KindOf([]string(nil)))
	require.Equal(t, Scalar, KindOf("x"))
	require.Equal(t, Scalar, KindOf(uint16(3)))
	require.Equal(t, Sequence, KindOf([2]int{1, 2}))
	require.Equal(t, Mapping, KindOf(map[string]int{}))
}

func TestCloneIsDeep(t *testing.T) {
	orig := map[string]any{
		"tags":  []any{"a", map[string]any{"k": "v"}},
		"owner": map[string]any{"name": "Kim"},
	}

	cloned := Clone(orig).(map[string]any)
	require.True(t, Equal(orig, cloned))

	cloned["owner"].(map[string]any)["name"] = "Lee"
	cloned["tags"].([]any)[1].(map[string]any)["k"] = "changed"

	require.Equal(t, "Kim", orig["owner"].(map[string]any)["name"])
	require.Equal(t, "v", orig["tags"].([]any)[1].(map[string]any)["k"])
}

func TestCloneTypedValues(t *testing.T) {
	orig := map[string][]string{"crew": {"a", "b"}}
	cloned := Clone(orig).(map[string][]string)
	cloned["crew"][0] = "z"
	require.Equal(t, "a", orig["crew"][0])

	require.Nil(t, CloneMap(nil))
}
