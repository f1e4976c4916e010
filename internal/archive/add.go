package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmcdonald/minizip/internal/codec"
	"github.com/jmcdonald/minizip/internal/zipfmt"
)

// Duplicates decides what AddMember does when the archive already holds a
// member with the same name (compared case-insensitively).
type Duplicates int

const (
	// DuplicateAppend keeps the existing records. Readers return the first
	// match, so the oldest copy stays the one that is extracted.
	DuplicateAppend Duplicates = iota

	// DuplicateReplace drops existing records of that name from the central
	// directory. Their bytes remain in the file, unreferenced.
	DuplicateReplace
)

func (d Duplicates) String() string {
	if d == DuplicateReplace {
		return "replace"
	}
	return "append"
}

// ParseDuplicates accepts "append" or "replace".
func ParseDuplicates(s string) (Duplicates, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "append", "":
		return DuplicateAppend, nil
	case "replace":
		return DuplicateReplace, nil
	default:
		return 0, fmt.Errorf("unknown duplicates policy %q (want append or replace)", s)
	}
}

// AddOptions control AddMember.
type AddOptions struct {
	Level      codec.Level
	Method     zipfmt.Method
	Duplicates Duplicates

	// InPlace writes the new member and directory into the existing file.
	// Otherwise the archive is rebuilt in a temporary file that is renamed
	// over the original.
	InPlace bool

	// ModTime is recorded in the member's headers. Zero means now.
	ModTime time.Time

	// Perm is recorded as the member's Unix permissions. Zero means 0644.
	Perm fs.FileMode
}

// DefaultAddOptions returns best-effort deflate with append semantics and an
// atomic rewrite.
func DefaultAddOptions() AddOptions {
	return AddOptions{
		Level:      codec.LevelBest,
		Method:     zipfmt.Deflate,
		Duplicates: DuplicateAppend,
	}
}

// CheckName reports whether name can be stored as a member name.
func CheckName(name string) error {
	switch {
	case name == "":
		return newError(InvalidName, "add", name, errors.New("empty member name"))
	case len(name) > zipfmt.MaxNameLen:
		return newError(InvalidName, "add", name, fmt.Errorf("name is %d bytes, limit is %d", len(name), zipfmt.MaxNameLen))
	case strings.ContainsRune(name, 0):
		return newError(InvalidName, "add", name, errors.New("name contains NUL"))
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// AddMember appends data to the archive at archivePath as memberName and
// rewrites the central directory after it. A missing archive is created.
//
// The payload is compressed with opts.Method at opts.Level; if that does not
// make it smaller it is stored instead.
func AddMember(archivePath, memberName string, data []byte, opts AddOptions) (Member, error) {
	if err := CheckName(memberName); err != nil {
		return Member{}, err
	}
	if int64(len(data)) >= zipfmt.MaxSize {
		return Member{}, newError(ArchiveUnwritable, "add", memberName,
			fmt.Errorf("%w: member of %d bytes needs zip64", zipfmt.ErrUnsupported, len(data)))
	}

	h, err := Open(archivePath, ModeAppend)
	if err != nil {
		return Member{}, err
	}
	committed := false
	defer func() {
		if !committed {
			h.discard()
		}
	}()

	method := opts.Method
	c, err := codec.ForMethod(uint16(method))
	if err != nil {
		return Member{}, newError(CodecFailure, "compress", memberName, err)
	}
	packed, err := c.Compress(data, opts.Level)
	if err != nil {
		return Member{}, newError(CodecFailure, "compress", memberName, err)
	}
	if method != zipfmt.Store && len(packed) >= len(data) {
		method = zipfmt.Store
		packed = data
	}

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}
	var flags uint16
	if !isASCII(memberName) {
		flags |= zipfmt.FlagUTF8
	}

	offset := h.DirectoryOffset()
	dosTime, dosDate := zipfmt.TimeToMSDos(modTime)
	entry := &zipfmt.CentralDirectoryHeader{
		VersionMadeBy:      zipfmt.VersionMadeBy,
		VersionNeeded:      method.VersionNeeded(),
		Flags:              flags,
		CompressionMethod:  method,
		LastModTime:        dosTime,
		LastModDate:        dosDate,
		CRC32:              zipfmt.Checksum(data),
		CompressedSize:     uint32(len(packed)),
		UncompressedSize:   uint32(len(data)),
		ExternalAttributes: uint32(0o100000|perm.Perm()) << 16,
		LocalHeaderOffset:  uint32(offset),
		Filename:           memberName,
	}

	local, err := entry.LocalHeader().MarshalBinary()
	if err != nil {
		return Member{}, newError(InvalidName, "add", memberName, err)
	}

	headers := make([]*zipfmt.CentralDirectoryHeader, 0, h.Count()+1)
	for _, hdr := range h.dir.Headers {
		if opts.Duplicates == DuplicateReplace && strings.EqualFold(hdr.Filename, memberName) {
			continue
		}
		headers = append(headers, hdr)
	}
	headers = append(headers, entry)

	dirOffset := offset + int64(len(local)) + int64(len(packed))
	dir, err := zipfmt.MarshalDirectory(headers, dirOffset, h.Comment())
	if err != nil {
		return Member{}, newError(ArchiveUnwritable, "add", archivePath, err)
	}

	tail := make([]byte, 0, len(local)+len(packed)+len(dir))
	tail = append(tail, local...)
	tail = append(tail, packed...)
	tail = append(tail, dir...)

	if opts.InPlace {
		err = h.writeInPlace(offset, tail)
	} else {
		err = h.writeAtomic(offset, tail)
	}
	if err != nil {
		return Member{}, newError(ArchiveUnwritable, "add", archivePath, err)
	}
	committed = true

	return memberFromHeader(len(headers)-1, entry), nil
}

// writeInPlace overwrites the file from offset with tail and truncates it
// there. If the write fails the old directory bytes are put back.
func (h *Handle) writeInPlace(offset int64, tail []byte) error {
	defer func() { _ = h.Close() }()

	old := make([]byte, h.size-offset)
	if err := zipfmt.ReadFullAt(h.f, old, offset); err != nil {
		return fmt.Errorf("saving old directory: %w", err)
	}

	if _, err := h.f.WriteAt(tail, offset); err != nil {
		h.restore(offset, old)
		return fmt.Errorf("writing member: %w", err)
	}
	if err := h.f.Truncate(offset + int64(len(tail))); err != nil {
		h.restore(offset, old)
		return fmt.Errorf("truncating archive: %w", err)
	}
	if err := h.f.Sync(); err != nil {
		h.restore(offset, old)
		return fmt.Errorf("syncing archive: %w", err)
	}
	return h.Close()
}

func (h *Handle) restore(offset int64, old []byte) {
	if _, err := h.f.WriteAt(old, offset); err != nil {
		return
	}
	_ = h.f.Truncate(offset + int64(len(old)))
}

// writeAtomic copies the archive up to offset into a temporary file in the
// same directory, appends tail, and renames it over the archive.
func (h *Handle) writeAtomic(offset int64, tail []byte) (err error) {
	perm := fs.FileMode(0o644)
	if info, statErr := h.f.Stat(); statErr == nil && !h.created {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), "."+filepath.Base(h.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, io.NewSectionReader(h.f, 0, offset)); err != nil {
		return fmt.Errorf("copying existing members: %w", err)
	}
	if _, err = tmp.Write(tail); err != nil {
		return fmt.Errorf("writing member: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err = h.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), h.path); err != nil {
		return fmt.Errorf("replacing archive: %w", err)
	}
	return nil
}
