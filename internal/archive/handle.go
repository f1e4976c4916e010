// Package archive adds single members to ZIP archives and reads them back.
//
// A Handle is a session over one archive file: it parses the central
// directory on open and reads member payloads on demand. AddMember and
// ReadMember wrap a Handle for the one-shot add and extract operations.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jmcdonald/minizip/internal/codec"
	"github.com/jmcdonald/minizip/internal/zipfmt"
)

// Mode is the access mode of a Handle.
type Mode int

const (
	ModeRead Mode = iota
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "read"
}

// Member describes one central directory record.
type Member struct {
	Name             string
	Method           zipfmt.Method
	CRC32            uint32
	CompressedSize   int64
	UncompressedSize int64
	Offset           int64
	Modified         time.Time

	// Index is the record's position in directory order.
	Index int
}

func memberFromHeader(i int, h *zipfmt.CentralDirectoryHeader) Member {
	return Member{
		Name:             h.Filename,
		Method:           h.CompressionMethod,
		CRC32:            h.CRC32,
		CompressedSize:   int64(h.CompressedSize),
		UncompressedSize: int64(h.UncompressedSize),
		Offset:           int64(h.LocalHeaderOffset),
		Modified:         zipfmt.MSDosToTime(h.LastModTime, h.LastModDate),
		Index:            i,
	}
}

// Handle is an open archive. It must be closed.
type Handle struct {
	path    string
	mode    Mode
	f       archiveFile
	size    int64
	dir     *zipfmt.Directory
	created bool

	// maxMemberSize caps the uncompressed size Read will buffer. Zero means
	// no cap.
	maxMemberSize int64
}

// archiveFile is the part of *os.File a Handle uses.
type archiveFile interface {
	io.ReaderAt
	io.WriterAt
	Stat() (fs.FileInfo, error)
	Truncate(size int64) error
	Sync() error
	Close() error
}

// Open opens the archive at path and parses its central directory.
//
// In ModeRead a missing file is ArchiveNotFound and anything that is not a
// well-formed archive, including an empty file, is CorruptArchive. In
// ModeAppend a missing file is created and a zero-length file is treated as
// an archive with no members.
func Open(path string, mode Mode) (*Handle, error) {
	flag := os.O_RDONLY
	if mode == ModeAppend {
		flag = os.O_RDWR
	}

	h := &Handle{path: path, mode: mode}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil && mode == ModeAppend && errors.Is(err, fs.ErrNotExist) {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		h.created = err == nil
	}
	if err != nil {
		switch {
		case mode == ModeAppend:
			return nil, newError(ArchiveUnwritable, "open", path, err)
		case errors.Is(err, fs.ErrNotExist):
			return nil, newError(ArchiveNotFound, "open", path, nil)
		default:
			return nil, newError(ArchiveUnreadable, "open", path, err)
		}
	}
	h.f = f

	info, err := f.Stat()
	if err != nil {
		_ = h.Close()
		return nil, newError(ArchiveUnreadable, "open", path, err)
	}
	if info.IsDir() {
		_ = h.Close()
		return nil, newError(CorruptArchive, "open", path, errors.New("is a directory"))
	}
	h.size = info.Size()

	if h.size == 0 && mode == ModeAppend {
		h.dir = zipfmt.EmptyDirectory()
		return h, nil
	}

	dir, err := zipfmt.ReadDirectory(f, h.size)
	if err != nil {
		_ = h.Close()
		return nil, classify("open", path, err, CorruptArchive)
	}
	h.dir = dir
	return h, nil
}

// Close releases the archive file. It is safe to call more than once.
func (h *Handle) Close() error {
	if h.f == nil {
		return nil
	}
	err := h.f.Close()
	h.f = nil
	return err
}

// discard closes the handle and removes the archive file if Open created it.
func (h *Handle) discard() {
	_ = h.Close()
	if h.created {
		_ = os.Remove(h.path)
	}
}

func (h *Handle) Path() string { return h.path }

func (h *Handle) Mode() Mode { return h.mode }

// SetMaxMemberSize limits the uncompressed size of members Read will return.
// Larger members fail with OutOfMemory before anything is decoded.
func (h *Handle) SetMaxMemberSize(n int64) { h.maxMemberSize = n }

// Count is the number of member records.
func (h *Handle) Count() int { return len(h.dir.Headers) }

// DirectoryOffset is where the central directory starts.
func (h *Handle) DirectoryOffset() int64 { return h.dir.Offset() }

// Comment is the archive comment from the end record.
func (h *Handle) Comment() string { return h.dir.End.Comment }

// Members returns every record in directory order.
func (h *Handle) Members() []Member {
	members := make([]Member, len(h.dir.Headers))
	for i, hdr := range h.dir.Headers {
		members[i] = memberFromHeader(i, hdr)
	}
	return members
}

// Find returns the first record, in directory order, whose name matches name
// case-insensitively.
func (h *Handle) Find(name string) (Member, bool) {
	for i, hdr := range h.dir.Headers {
		if strings.EqualFold(hdr.Filename, name) {
			return memberFromHeader(i, hdr), true
		}
	}
	return Member{}, false
}

// Read returns the uncompressed bytes of m after checking its local header
// and CRC-32. Nothing is returned unless the checksum matches.
func (h *Handle) Read(m Member) ([]byte, error) {
	if h.f == nil {
		return nil, newError(ArchiveNotFound, "read", h.path, os.ErrClosed)
	}
	if m.Index < 0 || m.Index >= len(h.dir.Headers) {
		return nil, newError(MemberNotFound, "read", m.Name, nil)
	}
	hdr := h.dir.Headers[m.Index]
	offset := int64(hdr.LocalHeaderOffset)

	if size := int64(hdr.UncompressedSize); h.maxMemberSize > 0 && size > h.maxMemberSize {
		return nil, newError(OutOfMemory, "read", hdr.Filename,
			fmt.Errorf("%d bytes exceeds the %d byte buffer limit", size, h.maxMemberSize))
	}

	fixed := make([]byte, zipfmt.LocalFileHeaderLen)
	if err := zipfmt.ReadFullAt(h.f, fixed, offset); err != nil {
		return nil, classify("read", hdr.Filename, fmt.Errorf("local header at %d: %w", offset, err), CorruptArchive)
	}
	headerLen, err := zipfmt.LocalHeaderSize(fixed)
	if err != nil {
		return nil, classify("read", hdr.Filename, fmt.Errorf("local header at %d: %w", offset, err), CorruptArchive)
	}
	raw := make([]byte, headerLen)
	if err := zipfmt.ReadFullAt(h.f, raw, offset); err != nil {
		return nil, classify("read", hdr.Filename, err, CorruptArchive)
	}
	local, _, err := zipfmt.ParseLocalFileHeader(raw)
	if err != nil {
		return nil, classify("read", hdr.Filename, err, CorruptArchive)
	}
	if local.Filename != hdr.Filename {
		return nil, newError(CorruptArchive, "read", hdr.Filename,
			fmt.Errorf("local header at %d names %q", offset, local.Filename))
	}
	if local.CompressionMethod != hdr.CompressionMethod {
		return nil, newError(CorruptArchive, "read", hdr.Filename,
			fmt.Errorf("local header method %s, directory says %s", local.CompressionMethod, hdr.CompressionMethod))
	}

	start := offset + int64(headerLen)
	end := start + int64(hdr.CompressedSize)
	if limit := h.dir.NextBoundary(offset); end > limit {
		return nil, newError(CorruptArchive, "read", hdr.Filename,
			fmt.Errorf("payload %d..%d overruns the next record at %d", start, end, limit))
	}

	payload := make([]byte, hdr.CompressedSize)
	if err := zipfmt.ReadFullAt(h.f, payload, start); err != nil {
		return nil, classify("read", hdr.Filename, err, CorruptArchive)
	}

	c, err := codec.ForMethod(uint16(hdr.CompressionMethod))
	if err != nil {
		return nil, newError(CodecFailure, "read", hdr.Filename, err)
	}
	data, err := c.Decompress(payload, int(hdr.UncompressedSize))
	if err != nil {
		return nil, newError(CodecFailure, "read", hdr.Filename, err)
	}

	if sum := zipfmt.Checksum(data); sum != hdr.CRC32 {
		return nil, newError(ChecksumMismatch, "read", hdr.Filename,
			fmt.Errorf("crc32 %08x, directory says %08x", sum, hdr.CRC32))
	}
	return data, nil
}
