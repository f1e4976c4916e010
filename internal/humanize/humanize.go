// Package humanize formats sizes and ratios for operator output.
package humanize

import "fmt"

// FormatSize renders a byte count with binary units, e.g. "1.5 KB".
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Ratio is the space saved by compression as a percentage, "0%" when nothing
// was saved or size is zero.
func Ratio(compressed, size int64) string {
	if size <= 0 || compressed >= size {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(size-compressed)/float64(size))
}
