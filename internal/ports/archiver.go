package ports

import "time"

// Archiver abstracts single-member archive operations for testability.
// Production code uses the ZipArchiver adapter; tests use MockArchiver.
type Archiver interface {
	// Add reads sourcePath and appends it to archivePath under its base name,
	// creating the archive if needed.
	Add(archivePath, sourcePath string) (MemberInfo, error)

	// Extract writes the first member matching memberName (case-insensitive)
	// to destDir/memberName, overwriting any existing file.
	Extract(archivePath, memberName, destDir string) (MemberInfo, error)

	// List returns the archive's members in directory order.
	List(archivePath string) ([]MemberInfo, error)

	// ReadMember returns the verified contents of a member without writing it.
	ReadMember(archivePath, memberName string) ([]byte, error)

	// Verify decompresses every member and checks its CRC-32.
	Verify(archivePath string) ([]VerifyResult, error)
}

// MemberInfo describes one member of an archive.
type MemberInfo struct {
	Name           string
	Size           int64
	CompressedSize int64
	CRC32          uint32
	Method         string
	Modified       time.Time
}

// VerifyResult is the outcome of checking one member. Err is nil when the
// member is intact.
type VerifyResult struct {
	Name string
	Err  error
}
