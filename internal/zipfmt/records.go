package zipfmt

import (
	"encoding/binary"
	"fmt"
)

type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) sub(n int) readBuf {
	s := (*b)[:n]
	*b = (*b)[n:]
	return s
}

type writeBuf []byte

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) bytes(p []byte) {
	n := copy(*b, p)
	*b = (*b)[n:]
}

func checkSignature(b []byte, want uint32, record string) error {
	if got := binary.LittleEndian.Uint32(b); got != want {
		return fmt.Errorf("%w: %s: got %#08x, want %#08x", ErrBadSignature, record, got, want)
	}
	return nil
}

func checkVarLen(name string, n int, max int) error {
	if n > max {
		return fmt.Errorf("zip: %s is %d bytes, limit is %d", name, n, max)
	}
	return nil
}

// MarshalBinary encodes the header in its on-disk layout.
func (h *LocalFileHeader) MarshalBinary() ([]byte, error) {
	if err := checkVarLen("file name", len(h.Filename), MaxNameLen); err != nil {
		return nil, err
	}
	if err := checkVarLen("extra field", len(h.ExtraField), 0xffff); err != nil {
		return nil, err
	}

	out := make([]byte, h.Len())
	b := writeBuf(out)
	b.uint32(LocalFileHeaderSignature)
	b.uint16(h.VersionNeeded)
	b.uint16(h.Flags)
	b.uint16(uint16(h.CompressionMethod))
	b.uint16(h.LastModTime)
	b.uint16(h.LastModDate)
	b.uint32(h.CRC32)
	b.uint32(h.CompressedSize)
	b.uint32(h.UncompressedSize)
	b.uint16(uint16(len(h.Filename)))
	b.uint16(uint16(len(h.ExtraField)))
	b.bytes([]byte(h.Filename))
	b.bytes(h.ExtraField)
	return out, nil
}

// ParseLocalFileHeader decodes a local file header from the start of b. It
// returns the header and the number of bytes it occupies.
func ParseLocalFileHeader(b []byte) (*LocalFileHeader, int, error) {
	if len(b) < LocalFileHeaderLen {
		return nil, 0, fmt.Errorf("%w: local file header needs %d bytes, have %d", ErrTruncatedRecord, LocalFileHeaderLen, len(b))
	}
	if err := checkSignature(b, LocalFileHeaderSignature, "local file header"); err != nil {
		return nil, 0, err
	}

	r := readBuf(b[4:LocalFileHeaderLen])
	h := &LocalFileHeader{}
	h.VersionNeeded = r.uint16()
	h.Flags = r.uint16()
	h.CompressionMethod = Method(r.uint16())
	h.LastModTime = r.uint16()
	h.LastModDate = r.uint16()
	h.CRC32 = r.uint32()
	h.CompressedSize = r.uint32()
	h.UncompressedSize = r.uint32()
	nameLen := int(r.uint16())
	extraLen := int(r.uint16())

	total := LocalFileHeaderLen + nameLen + extraLen
	if len(b) < total {
		return nil, 0, fmt.Errorf("%w: local file header needs %d bytes, have %d", ErrTruncatedRecord, total, len(b))
	}
	v := readBuf(b[LocalFileHeaderLen:total])
	h.Filename = string(v.sub(nameLen))
	h.ExtraField = append([]byte(nil), v.sub(extraLen)...)
	return h, total, nil
}

// LocalHeaderSize reads the fixed part of a local file header and returns the
// full header length including name and extra field.
func LocalHeaderSize(fixed []byte) (int, error) {
	if len(fixed) < LocalFileHeaderLen {
		return 0, fmt.Errorf("%w: local file header needs %d bytes, have %d", ErrTruncatedRecord, LocalFileHeaderLen, len(fixed))
	}
	if err := checkSignature(fixed, LocalFileHeaderSignature, "local file header"); err != nil {
		return 0, err
	}
	nameLen := int(binary.LittleEndian.Uint16(fixed[26:]))
	extraLen := int(binary.LittleEndian.Uint16(fixed[28:]))
	return LocalFileHeaderLen + nameLen + extraLen, nil
}

// MarshalBinary encodes the entry in its on-disk layout.
func (h *CentralDirectoryHeader) MarshalBinary() ([]byte, error) {
	if err := checkVarLen("file name", len(h.Filename), MaxNameLen); err != nil {
		return nil, err
	}
	if err := checkVarLen("extra field", len(h.ExtraField), 0xffff); err != nil {
		return nil, err
	}
	if err := checkVarLen("file comment", len(h.Comment), MaxCommentLen); err != nil {
		return nil, err
	}

	out := make([]byte, h.Len())
	b := writeBuf(out)
	b.uint32(CentralDirectorySignature)
	b.uint16(h.VersionMadeBy)
	b.uint16(h.VersionNeeded)
	b.uint16(h.Flags)
	b.uint16(uint16(h.CompressionMethod))
	b.uint16(h.LastModTime)
	b.uint16(h.LastModDate)
	b.uint32(h.CRC32)
	b.uint32(h.CompressedSize)
	b.uint32(h.UncompressedSize)
	b.uint16(uint16(len(h.Filename)))
	b.uint16(uint16(len(h.ExtraField)))
	b.uint16(uint16(len(h.Comment)))
	b.uint16(h.DiskNumberStart)
	b.uint16(h.InternalAttributes)
	b.uint32(h.ExternalAttributes)
	b.uint32(h.LocalHeaderOffset)
	b.bytes([]byte(h.Filename))
	b.bytes(h.ExtraField)
	b.bytes([]byte(h.Comment))
	return out, nil
}

// ParseCentralDirectoryHeader decodes one central directory entry from the
// start of b and returns it with the number of bytes consumed.
func ParseCentralDirectoryHeader(b []byte) (*CentralDirectoryHeader, int, error) {
	if len(b) < CentralDirectoryEntryLen {
		return nil, 0, fmt.Errorf("%w: central directory entry needs %d bytes, have %d", ErrTruncatedRecord, CentralDirectoryEntryLen, len(b))
	}
	if err := checkSignature(b, CentralDirectorySignature, "central directory entry"); err != nil {
		return nil, 0, err
	}

	r := readBuf(b[4:CentralDirectoryEntryLen])
	h := &CentralDirectoryHeader{}
	h.VersionMadeBy = r.uint16()
	h.VersionNeeded = r.uint16()
	h.Flags = r.uint16()
	h.CompressionMethod = Method(r.uint16())
	h.LastModTime = r.uint16()
	h.LastModDate = r.uint16()
	h.CRC32 = r.uint32()
	h.CompressedSize = r.uint32()
	h.UncompressedSize = r.uint32()
	nameLen := int(r.uint16())
	extraLen := int(r.uint16())
	commentLen := int(r.uint16())
	h.DiskNumberStart = r.uint16()
	h.InternalAttributes = r.uint16()
	h.ExternalAttributes = r.uint32()
	h.LocalHeaderOffset = r.uint32()

	total := CentralDirectoryEntryLen + nameLen + extraLen + commentLen
	if len(b) < total {
		return nil, 0, fmt.Errorf("%w: central directory entry needs %d bytes, have %d", ErrTruncatedRecord, total, len(b))
	}
	v := readBuf(b[CentralDirectoryEntryLen:total])
	h.Filename = string(v.sub(nameLen))
	h.ExtraField = append([]byte(nil), v.sub(extraLen)...)
	h.Comment = string(v.sub(commentLen))
	return h, total, nil
}

// MarshalBinary encodes the record in its on-disk layout.
func (e *EndOfCentralDirectory) MarshalBinary() ([]byte, error) {
	if err := checkVarLen("archive comment", len(e.Comment), MaxCommentLen); err != nil {
		return nil, err
	}

	out := make([]byte, EOCDLen+len(e.Comment))
	b := writeBuf(out)
	b.uint32(EndOfCentralDirectorySignature)
	b.uint16(e.DiskNumber)
	b.uint16(e.DiskWithCDStart)
	b.uint16(e.EntriesOnDisk)
	b.uint16(e.TotalEntries)
	b.uint32(e.CentralDirSize)
	b.uint32(e.CentralDirOffset)
	b.uint16(uint16(len(e.Comment)))
	b.bytes([]byte(e.Comment))
	return out, nil
}

// ParseEndOfCentralDirectory decodes the record at the start of b. The
// comment must be present in full.
func ParseEndOfCentralDirectory(b []byte) (*EndOfCentralDirectory, error) {
	if len(b) < EOCDLen {
		return nil, fmt.Errorf("%w: end of central directory needs %d bytes, have %d", ErrTruncatedRecord, EOCDLen, len(b))
	}
	if err := checkSignature(b, EndOfCentralDirectorySignature, "end of central directory"); err != nil {
		return nil, err
	}

	r := readBuf(b[4:EOCDLen])
	e := &EndOfCentralDirectory{}
	e.DiskNumber = r.uint16()
	e.DiskWithCDStart = r.uint16()
	e.EntriesOnDisk = r.uint16()
	e.TotalEntries = r.uint16()
	e.CentralDirSize = r.uint32()
	e.CentralDirOffset = r.uint32()
	commentLen := int(r.uint16())

	if len(b) < EOCDLen+commentLen {
		return nil, fmt.Errorf("%w: archive comment needs %d bytes, have %d", ErrTruncatedRecord, commentLen, len(b)-EOCDLen)
	}
	e.Comment = string(b[EOCDLen : EOCDLen+commentLen])
	return e, nil
}
