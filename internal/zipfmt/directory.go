package zipfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Directory is a parsed central directory together with its end record.
type Directory struct {
	Headers []*CentralDirectoryHeader
	End     *EndOfCentralDirectory

	// EndOffset is where the end of central directory record starts.
	EndOffset int64
}

// EmptyDirectory is the directory of an archive with no members.
func EmptyDirectory() *Directory {
	return &Directory{End: &EndOfCentralDirectory{}}
}

// Offset is where the central directory starts, which is also where the
// next local file header would be written.
func (d *Directory) Offset() int64 {
	return int64(d.End.CentralDirOffset)
}

var endSignature = []byte{0x50, 0x4b, 0x05, 0x06}

// FindEndOfDirectory scans tail backwards for an end of central directory
// record whose comment length reaches exactly to the end of tail. It returns
// the record's offset within tail.
func FindEndOfDirectory(tail []byte) (int, error) {
	for i := len(tail) - EOCDLen; i >= 0; i-- {
		if !bytes.Equal(tail[i:i+4], endSignature) {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(tail[i+EOCDLen-2:]))
		if i+EOCDLen+commentLen == len(tail) {
			return i, nil
		}
	}
	return 0, ErrNoDirectoryEnd
}

// ReadFullAt fills b from r at off. A short read is reported as
// ErrTruncatedRecord.
func ReadFullAt(r io.ReaderAt, b []byte, off int64) error {
	n, err := r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF {
		return fmt.Errorf("%w: wanted %d bytes at %d, got %d", ErrTruncatedRecord, len(b), off, n)
	}
	return err
}

// ReadDirectory locates and parses the central directory of the size-byte
// archive readable through r, then validates it.
func ReadDirectory(r io.ReaderAt, size int64) (*Directory, error) {
	if size < EOCDLen {
		return nil, fmt.Errorf("%w: archive is %d bytes", ErrNoDirectoryEnd, size)
	}

	tailLen := int64(EOCDLen + MaxCommentLen)
	if tailLen > size {
		tailLen = size
	}
	tail := make([]byte, tailLen)
	if err := ReadFullAt(r, tail, size-tailLen); err != nil {
		return nil, fmt.Errorf("reading archive tail: %w", err)
	}

	pos, err := FindEndOfDirectory(tail)
	if err != nil {
		return nil, err
	}
	end, err := ParseEndOfCentralDirectory(tail[pos:])
	if err != nil {
		return nil, err
	}
	endOffset := size - tailLen + int64(pos)

	if end.DiskNumber != 0 || end.DiskWithCDStart != 0 || end.EntriesOnDisk != end.TotalEntries {
		return nil, fmt.Errorf("%w: multi-disk archive", ErrUnsupported)
	}
	if end.TotalEntries == 0xffff || end.CentralDirSize == 0xffffffff || end.CentralDirOffset == 0xffffffff {
		return nil, fmt.Errorf("%w: zip64 archive", ErrUnsupported)
	}
	if int64(end.CentralDirOffset)+int64(end.CentralDirSize) != endOffset {
		return nil, fmt.Errorf("%w: directory at %d+%d does not end at the end record (%d)",
			ErrInconsistentDirectory, end.CentralDirOffset, end.CentralDirSize, endOffset)
	}

	raw := make([]byte, end.CentralDirSize)
	if err := ReadFullAt(r, raw, int64(end.CentralDirOffset)); err != nil {
		return nil, fmt.Errorf("reading central directory: %w", err)
	}

	d := &Directory{End: end, EndOffset: endOffset}
	rest := raw
	for i := 0; i < int(end.TotalEntries); i++ {
		h, n, err := ParseCentralDirectoryHeader(rest)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		d.Headers = append(d.Headers, h)
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d entries leave %d unparsed directory bytes",
			ErrInconsistentDirectory, end.TotalEntries, len(rest))
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that every entry's local header and payload fit between its
// offset and the start of the next entry (or of the directory). The local
// extra field length is not known here, so the check uses the name length
// only; readers re-check with the real local header.
func (d *Directory) Validate() error {
	order := make([]*CentralDirectoryHeader, len(d.Headers))
	copy(order, d.Headers)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].LocalHeaderOffset < order[j].LocalHeaderOffset
	})

	for i, h := range order {
		limit := d.Offset()
		if i+1 < len(order) {
			limit = int64(order[i+1].LocalHeaderOffset)
		}
		end := int64(h.LocalHeaderOffset) + LocalFileHeaderLen + int64(len(h.Filename)) + int64(h.CompressedSize)
		if end > limit {
			return fmt.Errorf("%w: %q spans %d..%d past the next record at %d",
				ErrInconsistentDirectory, h.Filename, h.LocalHeaderOffset, end, limit)
		}
	}
	return nil
}

// NextBoundary returns the offset of the first record that starts after off:
// another entry's local header or the central directory itself.
func (d *Directory) NextBoundary(off int64) int64 {
	limit := d.Offset()
	for _, h := range d.Headers {
		if o := int64(h.LocalHeaderOffset); o > off && o < limit {
			limit = o
		}
	}
	return limit
}

// MarshalDirectory encodes headers as a central directory starting at offset,
// followed by an end record carrying comment.
func MarshalDirectory(headers []*CentralDirectoryHeader, offset int64, comment string) ([]byte, error) {
	if len(headers) > MaxEntries-1 {
		return nil, fmt.Errorf("%w: %d entries need zip64", ErrUnsupported, len(headers))
	}

	var buf bytes.Buffer
	for _, h := range headers {
		b, err := h.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", h.Filename, err)
		}
		buf.Write(b)
	}
	size := int64(buf.Len())
	if offset+size >= MaxSize {
		return nil, fmt.Errorf("%w: archive exceeds 4 GiB", ErrUnsupported)
	}

	end := &EndOfCentralDirectory{
		EntriesOnDisk:    uint16(len(headers)),
		TotalEntries:     uint16(len(headers)),
		CentralDirSize:   uint32(size),
		CentralDirOffset: uint32(offset),
		Comment:          comment,
	}
	b, err := end.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(b)
	return buf.Bytes(), nil
}
