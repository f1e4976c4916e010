package tui

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jmcdonald/minizip/internal/ports"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// binarySniffLen is how much of a file IsBinary inspects.
const binarySniffLen = 8000

// DiffLine is one line of a side-by-side diff. A zero line number means the
// line does not exist on that side.
type DiffLine struct {
	LineNum1 int
	LineNum2 int
	Type     rune // ' ' same, '-' only in archive, '+' only on disk
	Content  string
}

// FileDiffResult compares an archived member with the file of the same name
// in the working directory.
type FileDiffResult struct {
	Path      string
	Left      string // label for the archived copy
	Right     string // label for the file on disk
	Lines     []DiffLine
	IsBinary  bool
	Identical bool
	Error     string
}

// IsBinary reports whether data looks binary: a NUL byte or invalid UTF-8 in
// the first few KB.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}

// ComputeFileDiff diffs member memberName of archivePath against
// workDir/memberName. A missing local file diffs as empty.
func ComputeFileDiff(archiver ports.Archiver, fsys ports.FileSystem, archivePath, memberName, workDir string) (*FileDiffResult, error) {
	archived, err := archiver.ReadMember(archivePath, memberName)
	if err != nil {
		return nil, err
	}

	localPath := filepath.Join(workDir, filepath.FromSlash(memberName))
	result := &FileDiffResult{
		Path:  memberName,
		Left:  filepath.Base(archivePath),
		Right: localPath,
	}

	local, err := fsys.ReadFile(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Right = localPath + " (missing)"
		local = nil
	case err != nil:
		result.Error = fmt.Sprintf("Error reading %s: %v", localPath, err)
		return result, nil
	}

	result.Identical = bytes.Equal(archived, local)
	if IsBinary(archived) || IsBinary(local) {
		result.IsBinary = true
		return result, nil
	}
	result.Lines = lineDiff(string(archived), string(local))
	return result, nil
}

// lineDiff runs diffmatchpatch in line mode and numbers the result.
func lineDiff(text1, text2 string) []DiffLine {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(text1, text2)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	return toDiffLines(diffs)
}

func toDiffLines(diffs []diffmatchpatch.Diff) []DiffLine {
	var lines []DiffLine
	n1, n2 := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				n1++
				n2++
				lines = append(lines, DiffLine{LineNum1: n1, LineNum2: n2, Type: ' ', Content: text})
			case diffmatchpatch.DiffDelete:
				n1++
				lines = append(lines, DiffLine{LineNum1: n1, Type: '-', Content: text})
			case diffmatchpatch.DiffInsert:
				n2++
				lines = append(lines, DiffLine{LineNum2: n2, Type: '+', Content: text})
			}
		}
	}
	return lines
}

// splitLines splits text after each newline and strips the newlines. A
// trailing newline does not start another line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

// DiffStats counts added and removed lines.
func DiffStats(lines []DiffLine) (added, removed int) {
	for _, l := range lines {
		switch l.Type {
		case '+':
			added++
		case '-':
			removed++
		}
	}
	return added, removed
}
