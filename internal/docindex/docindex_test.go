package docindex

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeName(t *testing.T) {
	tests := map[string]string{
		"obsidian::BoundarySpec":  "obsidian_1_1_boundary_spec",
		"datatype/world.hpp":      "datatype_2world_8hpp",
		"internal/world/world.go": "internal_2world_2world_8go",
		"snake_case":              "snake__case",
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeName(in), in)
	}
}

func TestValueAnchors(t *testing.T) {
	idx := Index(Options{Namespace: "obsidian", File: "datatype/world.hpp"})
	require.Len(t, idx, 5)

	classes := idx[3]
	assert.Equal(t, "BoundaryClass", classes.Name)
	require.Len(t, classes.Children, 2)
	assert.Equal(t, "Normal", classes.Children[0].Name)
	assert.True(t, strings.HasSuffix(classes.Children[0].Anchor, "a960b44c579bc2f6818d2daaf9e4c16f0"))
	assert.True(t, strings.HasPrefix(classes.Children[0].Anchor, classes.Anchor))

	props := idx[4]
	require.Len(t, props.Children, 14)
	assert.Equal(t, "Density", props.Children[0].Name)
	assert.True(t, strings.HasSuffix(props.Children[0].Anchor, "a7e6d11dd9dbeef53c1cb3cb896bce476"))
	assert.Equal(t, "Count", props.Children[9].Name)
	assert.True(t, strings.HasSuffix(props.Children[9].Anchor, "ae93f994f01c537c4e2f7d8528c3eb5e9"))
	assert.Equal(t, "ResistivityZ", props.Children[13].Name)

	assert.Equal(t, "structobsidian_1_1_boundary_spec.html", idx[0].Page)
	assert.Equal(t, "structobsidian_1_1_boundary_spec", idx[0].Ref)
	assert.Equal(t, "datatype_2world_8hpp.html", props.Page)
}

func TestWorldIndexIsValid(t *testing.T) {
	idx := WorldIndex()
	require.NoError(t, Validate(idx))
	assert.Equal(t, idx, WorldIndex(), "anchors are deterministic")
	assert.Equal(t, "internal_2world_2world_8go", DefaultOptions().VarName())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    string
	}{
		{
			name:    "empty name",
			entries: []Entry{{Name: " ", Page: "a.html"}},
			want:    "empty display name",
		},
		{
			name:    "missing page",
			entries: []Entry{{Name: "A"}},
			want:    "has no page",
		},
		{
			name: "duplicate anchor",
			entries: []Entry{{Name: "E", Page: "f.html", Anchor: "x", Children: []Entry{
				{Name: "One", Page: "f.html", Anchor: "y"},
				{Name: "Two", Page: "f.html", Anchor: "y"},
			}}},
			want: `"Two" reuses the anchor of "One"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidIndex))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	// the same anchor on different pages is fine
	assert.NoError(t, Validate([]Entry{
		{Name: "A", Page: "a.html", Anchor: "x"},
		{Name: "B", Page: "b.html", Anchor: "x"},
	}))
}

func TestRender(t *testing.T) {
	entries := []Entry{
		{Name: "WorldSpec", Page: "structw_1_1_world_spec.html", Ref: "structw_1_1_world_spec"},
		{Name: "BoundaryClass", Page: "w.html", Anchor: "ab", Children: []Entry{
			{Name: "Normal", Page: "w.html", Anchor: "aba1"},
			{Name: "Warped", Page: "w.html", Anchor: "aba2"},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "w_8go", entries))

	want := `var w_8go =
[
    [ "WorldSpec", "structw_1_1_world_spec.html", "structw_1_1_world_spec" ],
    [ "BoundaryClass", "w.html#ab", [
      [ "Normal", "w.html#aba1", null ],
      [ "Warped", "w.html#aba2", null ]
    ] ]
];
`
	assert.Equal(t, want, buf.String())
}

func TestRenderEscapesForJavaScript(t *testing.T) {
	entries := []Entry{{Name: "bell\a \"tab\"\t é <b>", Page: "p.html", Ref: "line\u2028sep"}}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "v", entries))

	out := buf.String()
	assert.Contains(t, out, `[ "bell\u0007 \"tab\"\t é \u003cb\u003e", "p.html", "line\u2028sep" ]`)
	assert.NotContains(t, out, `\a`)
}
