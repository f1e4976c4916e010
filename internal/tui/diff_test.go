package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmcdonald/minizip/internal/archive"
	"github.com/jmcdonald/minizip/internal/mocks"
	"github.com/jmcdonald/minizip/internal/ports"
)

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"empty", nil, false},
		{"plain text", []byte("hello world\n"), false},
		{"utf8 text", []byte("héllo wörld ✓"), false},
		{"null byte", []byte("abc\x00def"), true},
		{"invalid utf8", []byte{0xff, 0xfe, 0x41}, true},
		{"null beyond sniff window", append([]byte(strings.Repeat("a", binarySniffLen)), 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinary(tt.data); got != tt.expected {
				t.Errorf("IsBinary(%q) = %v, expected %v", tt.data, got, tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		got := splitLines(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
			t.Errorf("splitLines(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestLineDiff(t *testing.T) {
	lines := lineDiff("a\nb\nc\n", "a\nB\nc\n")

	expected := []DiffLine{
		{LineNum1: 1, LineNum2: 1, Type: ' ', Content: "a"},
		{LineNum1: 2, Type: '-', Content: "b"},
		{LineNum2: 2, Type: '+', Content: "B"},
		{LineNum1: 3, LineNum2: 3, Type: ' ', Content: "c"},
	}
	if len(lines) != len(expected) {
		t.Fatalf("lineDiff returned %d lines, expected %d: %+v", len(lines), len(expected), lines)
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d = %+v, expected %+v", i, lines[i], expected[i])
		}
	}
}

func TestLineDiffAppendAndRemove(t *testing.T) {
	lines := lineDiff("one\ntwo\n", "one\ntwo\nthree\n")
	added, removed := DiffStats(lines)
	if added != 1 || removed != 0 {
		t.Errorf("append: added=%d removed=%d, expected 1/0", added, removed)
	}
	last := lines[len(lines)-1]
	if last.Type != '+' || last.Content != "three" || last.LineNum2 != 3 {
		t.Errorf("last line = %+v", last)
	}

	lines = lineDiff("one\ntwo\n", "")
	added, removed = DiffStats(lines)
	if added != 0 || removed != 2 {
		t.Errorf("remove all: added=%d removed=%d, expected 0/2", added, removed)
	}
}

func newDiffFixture() (*mocks.MockArchiver, *mocks.MockFileSystem) {
	arch := mocks.NewMockArchiver()
	arch.AddMember("/a.zip", ports.MemberInfo{Name: "notes.txt"}, []byte("alpha\nbeta\ngamma\n"))
	return arch, mocks.NewMockFileSystem()
}

func TestComputeFileDiffModified(t *testing.T) {
	arch, fsys := newDiffFixture()
	fsys.Files["/work/notes.txt"] = []byte("alpha\nBETA\ngamma\n")

	result, err := ComputeFileDiff(arch, fsys, "/a.zip", "notes.txt", "/work")
	if err != nil {
		t.Fatalf("ComputeFileDiff failed: %v", err)
	}

	if result.Identical || result.IsBinary || result.Error != "" {
		t.Fatalf("unexpected result flags: %+v", result)
	}
	if result.Left != "a.zip" || result.Right != "/work/notes.txt" {
		t.Errorf("labels = %q / %q", result.Left, result.Right)
	}
	added, removed := DiffStats(result.Lines)
	if added != 1 || removed != 1 {
		t.Errorf("added=%d removed=%d, expected 1/1", added, removed)
	}
}

func TestComputeFileDiffIdentical(t *testing.T) {
	arch, fsys := newDiffFixture()
	fsys.Files["/work/notes.txt"] = []byte("alpha\nbeta\ngamma\n")

	result, err := ComputeFileDiff(arch, fsys, "/a.zip", "notes.txt", "/work")
	if err != nil {
		t.Fatalf("ComputeFileDiff failed: %v", err)
	}
	if !result.Identical {
		t.Error("expected identical")
	}
	if added, removed := DiffStats(result.Lines); added+removed != 0 {
		t.Errorf("identical files produced changes: +%d -%d", added, removed)
	}
}

func TestComputeFileDiffMissingLocal(t *testing.T) {
	arch, fsys := newDiffFixture()

	result, err := ComputeFileDiff(arch, fsys, "/a.zip", "notes.txt", "/work")
	if err != nil {
		t.Fatalf("ComputeFileDiff failed: %v", err)
	}
	if !strings.HasSuffix(result.Right, "(missing)") {
		t.Errorf("Right = %q, expected missing marker", result.Right)
	}
	if _, removed := DiffStats(result.Lines); removed != 3 {
		t.Errorf("removed = %d, expected 3", removed)
	}
}

func TestComputeFileDiffLocalReadError(t *testing.T) {
	arch, fsys := newDiffFixture()
	fsys.Errors["/work/notes.txt"] = errors.New("permission denied")

	result, err := ComputeFileDiff(arch, fsys, "/a.zip", "notes.txt", "/work")
	if err != nil {
		t.Fatalf("ComputeFileDiff failed: %v", err)
	}
	if !strings.Contains(result.Error, "permission denied") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestComputeFileDiffBinary(t *testing.T) {
	arch := mocks.NewMockArchiver()
	arch.AddMember("/a.zip", ports.MemberInfo{Name: "blob.bin"}, []byte{0x00, 0x01, 0x02})
	fsys := mocks.NewMockFileSystem()
	fsys.Files["/work/blob.bin"] = []byte{0x00, 0x01, 0x02}

	result, err := ComputeFileDiff(arch, fsys, "/a.zip", "blob.bin", "/work")
	if err != nil {
		t.Fatalf("ComputeFileDiff failed: %v", err)
	}
	if !result.IsBinary || !result.Identical {
		t.Errorf("expected identical binary, got %+v", result)
	}
	if len(result.Lines) != 0 {
		t.Error("binary files should not produce diff lines")
	}
}

func TestComputeFileDiffMemberError(t *testing.T) {
	arch, fsys := newDiffFixture()

	_, err := ComputeFileDiff(arch, fsys, "/a.zip", "absent.txt", "/work")
	if !errors.Is(err, archive.MemberNotFound) {
		t.Errorf("expected MemberNotFound, got %v", err)
	}
}
