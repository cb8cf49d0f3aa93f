package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-vault/pkg/fserr"
)

func TestSanitizeName(t *testing.T) {
	t.Run("trims surrounding whitespace", func(t *testing.T) {
		name, err := SanitizeName("  report.pdf  ")
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", name)
	})

	t.Run("strips invisible characters", func(t *testing.T) {
		name, err := SanitizeName("re\u200Bport\uFEFF.pdf")
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", name)
	})

	t.Run("keeps multi-byte names intact", func(t *testing.T) {
		name, err := SanitizeName("résumé 2026.docx")
		require.NoError(t, err)
		assert.Equal(t, "résumé 2026.docx", name)
	})

	t.Run("truncates very long names by runes", func(t *testing.T) {
		name, err := SanitizeName(strings.Repeat("é", 300))
		require.NoError(t, err)
		assert.Equal(t, 255, len([]rune(name)))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := []struct {
			label string
			input string
		}{
			{"empty", ""},
			{"whitespace only", "   "},
			{"forward slash", "a/b"},
			{"backslash", "a\\b"},
			{"only invisible characters", "\u200B\u200C"},
			{"current directory", "."},
			{"parent directory", ".."},
			{"reserved device name", "CON"},
			{"reserved device name with extension", "nul.txt"},
		}

		for _, tc := range cases {
			t.Run(tc.label, func(t *testing.T) {
				_, err := SanitizeName(tc.input)
				require.Error(t, err)
				assert.Equal(t, fserr.CodeBadRequest, fserr.CodeOf(err))
			})
		}
	})
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/octet-stream", DetectContentType(nil))
	assert.Equal(t, "image/png", DetectContentType([]byte("\x89PNG\r\n\x1a\n rest")))
	assert.Contains(t, DetectContentType([]byte("plain words")), "text/plain")
}
