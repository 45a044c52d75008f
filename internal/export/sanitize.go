package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var ErrInvalidOutput = errors.New("invalid output location")

const maxNameLength = 120

// SanitizeName strips control characters and replaces anything outside a
// conservative file-name alphabet with '_'.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// OutputPath joins a sanitized title and the format's extension onto dir.
func OutputPath(dir, title, format string) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}
	if format == "" {
		format = DefaultFormat
	}
	f, ok := Formats[format]
	if !ok {
		return "", fmt.Errorf("%w: format %q", ErrUnsupported, format)
	}

	name := SanitizeName(title, maxNameLength)
	if name == "" || strings.Trim(name, ".") == "" {
		name = "export"
	}
	return filepath.Join(dir, name+f.Extension), nil
}

func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalidOutput)
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("%w: output_dir cannot contain path traversal", ErrInvalidOutput)
		}
	}

	cleaned := filepath.Clean(dir)
	if cleaned != dir {
		return fmt.Errorf("%w: output_dir must be clean path", ErrInvalidOutput)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: output_dir does not exist", ErrInvalidOutput)
		}
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output_dir is not a directory", ErrInvalidOutput)
	}

	return nil
}
