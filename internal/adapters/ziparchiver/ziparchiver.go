// Package ziparchiver provides an archiver adapter over the internal archive engine.
package ziparchiver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jmcdonald/minizip/internal/archive"
	"github.com/jmcdonald/minizip/internal/ports"
)

// ZipArchiver implements ports.Archiver. Source and output files go through
// the injected FileSystem; the archive itself is handled by package archive.
type ZipArchiver struct {
	fs            ports.FileSystem
	opts          archive.AddOptions
	maxMemberSize int64
}

// New creates a new ZipArchiver adapter. maxMemberSize caps how large a
// source file or extracted member may be buffered; zero means no cap.
func New(fsys ports.FileSystem, opts archive.AddOptions, maxMemberSize int64) *ZipArchiver {
	return &ZipArchiver{fs: fsys, opts: opts, maxMemberSize: maxMemberSize}
}

// withPath fills in the path of a package archive error that was raised
// without one.
func withPath(err error, path string) error {
	var e *archive.Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}

func toInfo(m archive.Member) ports.MemberInfo {
	return ports.MemberInfo{
		Name:           m.Name,
		Size:           m.UncompressedSize,
		CompressedSize: m.CompressedSize,
		CRC32:          m.CRC32,
		Method:         m.Method.String(),
		Modified:       m.Modified,
	}
}

// Add reads sourcePath fully and appends it to archivePath under its base name.
func (a *ZipArchiver) Add(archivePath, sourcePath string) (ports.MemberInfo, error) {
	info, err := a.fs.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.MemberInfo{}, &archive.Error{Kind: archive.InputNotFound, Op: "add", Path: sourcePath}
		}
		return ports.MemberInfo{}, &archive.Error{Kind: archive.InputUnreadable, Op: "add", Path: sourcePath, Err: err}
	}
	if info.IsDir() {
		return ports.MemberInfo{}, &archive.Error{Kind: archive.InputUnreadable, Op: "add", Path: sourcePath,
			Err: errors.New("is a directory")}
	}

	f, err := a.fs.Open(sourcePath)
	if err != nil {
		kind := archive.InputUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			kind = archive.InputNotFound
		}
		return ports.MemberInfo{}, &archive.Error{Kind: kind, Op: "add", Path: sourcePath, Err: err}
	}
	defer func() { _ = f.Close() }()

	data, err := archive.ReadSource(f, info.Size(), a.maxMemberSize)
	if err != nil {
		return ports.MemberInfo{}, withPath(err, sourcePath)
	}

	opts := a.opts
	if opts.ModTime.IsZero() {
		opts.ModTime = info.ModTime()
	}
	if opts.Perm == 0 {
		opts.Perm = info.Mode().Perm()
	}

	m, err := archive.AddMember(archivePath, archive.MemberName(sourcePath), data, opts)
	if err != nil {
		return ports.MemberInfo{}, err
	}
	return toInfo(m), nil
}

// Extract writes the first member matching memberName to destDir/memberName.
// The member is verified in memory first, so a checksum failure writes nothing.
func (a *ZipArchiver) Extract(archivePath, memberName, destDir string) (ports.MemberInfo, error) {
	if _, err := a.fs.Stat(archivePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.MemberInfo{}, &archive.Error{Kind: archive.ArchiveNotFound, Op: "extract", Path: archivePath}
		}
		return ports.MemberInfo{}, &archive.Error{Kind: archive.ArchiveUnreadable, Op: "extract", Path: archivePath, Err: err}
	}

	// Resolve the output path before reading so an unsafe name fails early.
	target, err := outputPath(destDir, memberName)
	if err != nil {
		return ports.MemberInfo{}, err
	}

	data, m, err := archive.ReadMember(archivePath, memberName, a.maxMemberSize)
	if err != nil {
		return ports.MemberInfo{}, err
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return ports.MemberInfo{}, &archive.Error{Kind: archive.OutputUnwritable, Op: "extract", Path: target, Err: err}
		}
	}
	if err := a.fs.WriteFile(target, data, 0o644); err != nil {
		return ports.MemberInfo{}, &archive.Error{Kind: archive.OutputUnwritable, Op: "extract", Path: target, Err: err}
	}
	return toInfo(m), nil
}

// outputPath joins destDir and memberName, refusing names that would land
// outside destDir.
func outputPath(destDir, memberName string) (string, error) {
	clean := strings.TrimSpace(memberName)
	if clean == "" || clean == "." || clean == ".." || strings.HasSuffix(clean, "/") || strings.HasSuffix(clean, `\`) {
		return "", &archive.Error{Kind: archive.InvalidName, Op: "extract", Path: memberName,
			Err: errors.New("not a file name")}
	}

	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("resolving destination path: %w", err)
	}
	absDestDir = filepath.Clean(absDestDir)

	target := filepath.Join(destDir, filepath.FromSlash(memberName))
	if filepath.IsAbs(filepath.FromSlash(memberName)) || !isWithinDir(absDestDir, target) || target == filepath.Clean(destDir) {
		return "", &archive.Error{Kind: archive.InvalidName, Op: "extract", Path: memberName,
			Err: errors.New("path traversal detected")}
	}
	return target, nil
}

// isWithinDir checks if the target path is within the base directory.
func isWithinDir(absBaseDir, targetPath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absTarget = filepath.Clean(absTarget)

	return strings.HasPrefix(absTarget, absBaseDir+string(filepath.Separator)) ||
		absTarget == absBaseDir
}

// List returns the archive's members in directory order.
func (a *ZipArchiver) List(archivePath string) ([]ports.MemberInfo, error) {
	members, err := archive.List(archivePath)
	if err != nil {
		return nil, err
	}

	infos := make([]ports.MemberInfo, len(members))
	for i, m := range members {
		infos[i] = toInfo(m)
	}
	return infos, nil
}

// ReadMember returns the verified contents of the first matching member.
func (a *ZipArchiver) ReadMember(archivePath, memberName string) ([]byte, error) {
	data, _, err := archive.ReadMember(archivePath, memberName, a.maxMemberSize)
	return data, err
}

// Verify checks every member's CRC-32.
func (a *ZipArchiver) Verify(archivePath string) ([]ports.VerifyResult, error) {
	results, err := archive.Verify(archivePath, a.maxMemberSize)
	if err != nil {
		return nil, err
	}

	out := make([]ports.VerifyResult, len(results))
	for i, r := range results {
		out[i] = ports.VerifyResult{Name: r.Member.Name, Err: r.Err}
	}
	return out, nil
}

// Compile-time check that ZipArchiver implements ports.Archiver.
var _ ports.Archiver = (*ZipArchiver)(nil)
