package infrastructure

import "strings"

// SanitizeCategory normalizes a category name for filesystem use. Names
// like "Turbografx-16 / PC Engine" keep only the segment before the slash,
// matching how the catalog site labels composite platforms.
func SanitizeCategory(name string) string {
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	return SanitizeName(strings.TrimSpace(name))
}

// SanitizeName replaces characters that are hostile to common filesystems
// with underscores and trims surrounding whitespace and trailing dots.
func SanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"\x00", "_",
	)
	name = replacer.Replace(name)
	name = strings.TrimSpace(name)
	return strings.TrimRight(name, ".")
}
