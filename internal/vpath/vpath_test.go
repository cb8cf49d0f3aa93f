package vpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndBuild(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		segments []string
	}{
		{name: "root", path: "", segments: nil},
		{name: "single segment", path: "Photos", segments: []string{"Photos"}},
		{name: "nested", path: "Photos/2024/Spring", segments: []string{"Photos", "2024", "Spring"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.segments, Parse(tc.path))
			require.Equal(t, tc.path, Build(tc.segments))
		})
	}

	t.Run("drops empty segments", func(t *testing.T) {
		require.Equal(t, []string{"a", "b"}, Parse("/a//b/"))
		require.Equal(t, "a/b", Build([]string{"", "a", "", "b"}))
	})

	t.Run("normalize round-trips messy input", func(t *testing.T) {
		require.Equal(t, "a/b", Normalize("/a//b/"))
		require.Equal(t, "", Normalize("//"))
	})
}

func TestJoin(t *testing.T) {
	t.Parallel()

	require.Equal(t, "doc.txt", Join("", "doc.txt"))
	require.Equal(t, "A/doc.txt", Join("A", "doc.txt"))
}

func TestParent(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Parent(""))
	require.Equal(t, "", Parent("A"))
	require.Equal(t, "A/B", Parent("A/B/C"))
}

func TestIsDescendantOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		candidate string
		ancestor  string
		want      bool
	}{
		{name: "equal paths", candidate: "A/B", ancestor: "A/B", want: true},
		{name: "direct child", candidate: "A/B/C", ancestor: "A/B", want: true},
		{name: "deep descendant", candidate: "A/B/C/D/E", ancestor: "A/B", want: true},
		{name: "sibling", candidate: "A/C", ancestor: "A/B", want: false},
		{name: "shared name prefix is not ancestry", candidate: "A/Backup", ancestor: "A/Back", want: false},
		{name: "ancestor below candidate", candidate: "A", ancestor: "A/B", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsDescendantOf(tc.candidate, tc.ancestor))
		})
	}
}

func TestReplacePrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, "B", ReplacePrefix("A", "A", "B"))
	require.Equal(t, "B/C", ReplacePrefix("A/C", "A", "B"))
	require.Equal(t, "Y/X/deep", ReplacePrefix("X/deep", "X", "Y/X"))
	require.Equal(t, "other/path", ReplacePrefix("other/path", "A", "B"))
}
