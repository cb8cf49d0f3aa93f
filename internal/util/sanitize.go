package util

import (
	"strings"
	"unicode"

	"go-file-vault/internal/model"
	"go-file-vault/pkg/fserr"
)

const maxNameRunes = 255

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeName cleans a caller-supplied entry name: surrounding whitespace
// and invisible Unicode are stripped, and names that cannot be represented
// as a single path segment are rejected. Separators are rejected rather
// than replaced because a silently rewritten name would break the caller's
// expectation of where the entry ends up.
func SanitizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fserr.From(fserr.CodeBadRequest, "name cannot be empty", "", model.ErrInvalidInput)
	}

	if strings.ContainsAny(trimmed, "/\\") {
		return "", fserr.From(fserr.CodeBadRequest, "name cannot contain a path separator", trimmed, model.ErrInvalidInput)
	}

	builder := strings.Builder{}
	builder.Grow(len(trimmed))
	for _, char := range trimmed {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())
	if cleaned == "" {
		return "", fserr.From(fserr.CodeBadRequest, "name is empty after sanitization", trimmed, model.ErrInvalidInput)
	}
	if cleaned == "." || cleaned == ".." {
		return "", fserr.From(fserr.CodeBadRequest, "name cannot be a directory reference", cleaned, model.ErrInvalidInput)
	}

	// Truncate by runes, not bytes, so multi-byte characters are never split.
	runes := []rune(cleaned)
	if len(runes) > maxNameRunes {
		cleaned = string(runes[:maxNameRunes])
	}

	stem := cleaned
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		stem = cleaned[:idx]
	}
	if _, exists := reservedNames[strings.ToUpper(stem)]; exists {
		return "", fserr.From(fserr.CodeBadRequest, "name is reserved", cleaned, model.ErrInvalidInput)
	}

	return cleaned, nil
}

// isInvisibleUnicode reports zero-width and other invisible characters
// that render as nothing but change name identity.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
