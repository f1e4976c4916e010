package humanize

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{11, "11 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
		{5 * 1073741824, "5.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatSize(tt.bytes); got != tt.expected {
				t.Errorf("FormatSize(%d) = %q, expected %q", tt.bytes, got, tt.expected)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		compressed, size int64
		expected         string
	}{
		{0, 0, "0%"},
		{11, 11, "0%"},
		{12, 11, "0%"},
		{50, 100, "50.0%"},
		{1, 3, "66.7%"},
	}

	for _, tt := range tests {
		if got := Ratio(tt.compressed, tt.size); got != tt.expected {
			t.Errorf("Ratio(%d, %d) = %q, expected %q", tt.compressed, tt.size, got, tt.expected)
		}
	}
}
