// Package zipfmt models the on-disk records of a ZIP archive: local file
// headers, central directory headers and the end of central directory
// record. It knows nothing about files or compression; callers hand it bytes
// or an io.ReaderAt.
package zipfmt

import "errors"

const (
	LocalFileHeaderSignature       = 0x04034b50
	CentralDirectorySignature      = 0x02014b50
	EndOfCentralDirectorySignature = 0x06054b50
	DataDescriptorSignature        = 0x08074b50

	LocalFileHeaderLen       = 30 // + name + extra
	CentralDirectoryEntryLen = 46 // + name + extra + comment
	EOCDLen                  = 22 // + comment

	MaxNameLen    = 0xffff
	MaxCommentLen = 0xffff
	MaxEntries    = 0xffff
	MaxSize       = 0xffffffff
)

// General purpose bit flags.
const (
	FlagDataDescriptor uint16 = 0x0008
	FlagUTF8           uint16 = 0x0800
)

// Version fields written by this package: 2.0 for stored/deflate, 6.3 for zstd,
// made by Unix.
const (
	VersionDeflate uint16 = 20
	VersionZstd    uint16 = 63
	VersionMadeBy  uint16 = 0x0300 | VersionZstd
)

// Method is a ZIP compression method id.
type Method uint16

const (
	Store   Method = 0
	Deflate Method = 8
	Zstd    Method = 93
)

func (m Method) String() string {
	switch m {
	case Store:
		return "stored"
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// VersionNeeded returns the minimum extractor version for m.
func (m Method) VersionNeeded() uint16 {
	if m == Zstd {
		return VersionZstd
	}
	return VersionDeflate
}

var (
	// ErrBadSignature is returned when the 4-byte magic at an offset does not
	// match the record expected there.
	ErrBadSignature = errors.New("zip: bad signature")

	// ErrTruncatedRecord is returned when fewer bytes remain than the record needs.
	ErrTruncatedRecord = errors.New("zip: truncated record")

	// ErrNoDirectoryEnd is returned when no end of central directory record is found.
	ErrNoDirectoryEnd = errors.New("zip: end of central directory not found")

	// ErrInconsistentDirectory is returned when the directory's offsets, sizes
	// or counts disagree with each other or with the file length.
	ErrInconsistentDirectory = errors.New("zip: inconsistent central directory")

	// ErrUnsupported is returned for multi-disk and zip64 archives.
	ErrUnsupported = errors.New("zip: unsupported archive feature")
)

type LocalFileHeader struct {
	VersionNeeded     uint16
	Flags             uint16
	CompressionMethod Method
	LastModTime       uint16
	LastModDate       uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	Filename          string
	ExtraField        []byte
}

// Len is the encoded size of the header including name and extra field.
func (h *LocalFileHeader) Len() int64 {
	return LocalFileHeaderLen + int64(len(h.Filename)) + int64(len(h.ExtraField))
}

type CentralDirectoryHeader struct {
	VersionMadeBy      uint16
	VersionNeeded      uint16
	Flags              uint16
	CompressionMethod  Method
	LastModTime        uint16
	LastModDate        uint16
	CRC32              uint32
	CompressedSize     uint32
	UncompressedSize   uint32
	DiskNumberStart    uint16
	InternalAttributes uint16
	ExternalAttributes uint32
	LocalHeaderOffset  uint32
	Filename           string
	ExtraField         []byte
	Comment            string
}

// Len is the encoded size of the entry including its variable fields.
func (h *CentralDirectoryHeader) Len() int64 {
	return CentralDirectoryEntryLen + int64(len(h.Filename)) + int64(len(h.ExtraField)) + int64(len(h.Comment))
}

// LocalHeader returns the local file header matching this entry.
func (h *CentralDirectoryHeader) LocalHeader() *LocalFileHeader {
	return &LocalFileHeader{
		VersionNeeded:     h.VersionNeeded,
		Flags:             h.Flags,
		CompressionMethod: h.CompressionMethod,
		LastModTime:       h.LastModTime,
		LastModDate:       h.LastModDate,
		CRC32:             h.CRC32,
		CompressedSize:    h.CompressedSize,
		UncompressedSize:  h.UncompressedSize,
		Filename:          h.Filename,
	}
}

type EndOfCentralDirectory struct {
	DiskNumber       uint16
	DiskWithCDStart  uint16
	EntriesOnDisk    uint16
	TotalEntries     uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
	Comment          string
}
