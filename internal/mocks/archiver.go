package mocks

import (
	"path"
	"strings"

	"github.com/jmcdonald/minizip/internal/archive"
	"github.com/jmcdonald/minizip/internal/ports"
)

// MockArchiver implements ports.Archiver for testing. It keeps archives as
// in-memory member lists keyed by archive path.
type MockArchiver struct {
	// AddCalls records calls to Add
	AddCalls []AddCall
	// ExtractCalls records calls to Extract
	ExtractCalls []ExtractCall
	// Members maps archive paths to their listings
	Members map[string][]ports.MemberInfo
	// Contents maps "archivePath:memberName" (stored name) to member bytes
	Contents map[string][]byte
	// VerifyResults maps archive paths to canned Verify output
	VerifyResults map[string][]ports.VerifyResult
	// Errors maps method names to errors
	Errors map[string]error
}

// AddCall records parameters of an Add call.
type AddCall struct {
	ArchivePath string
	SourcePath  string
}

// ExtractCall records parameters of an Extract call.
type ExtractCall struct {
	ArchivePath string
	MemberName  string
	DestDir     string
}

// NewMockArchiver creates a new mock archiver.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{
		Members:       make(map[string][]ports.MemberInfo),
		Contents:      make(map[string][]byte),
		VerifyResults: make(map[string][]ports.VerifyResult),
		Errors:        make(map[string]error),
	}
}

// AddMember seeds an archive with a member and its contents.
func (m *MockArchiver) AddMember(archivePath string, info ports.MemberInfo, content []byte) {
	m.Members[archivePath] = append(m.Members[archivePath], info)
	m.Contents[archivePath+":"+info.Name] = content
}

func (m *MockArchiver) find(archivePath, memberName string) (ports.MemberInfo, bool) {
	for _, info := range m.Members[archivePath] {
		if strings.EqualFold(info.Name, memberName) {
			return info, true
		}
	}
	return ports.MemberInfo{}, false
}

// Add records the call and appends a member named after the source's base name.
func (m *MockArchiver) Add(archivePath, sourcePath string) (ports.MemberInfo, error) {
	m.AddCalls = append(m.AddCalls, AddCall{ArchivePath: archivePath, SourcePath: sourcePath})
	if err, ok := m.Errors["Add"]; ok {
		return ports.MemberInfo{}, err
	}
	info := ports.MemberInfo{Name: path.Base(strings.ReplaceAll(sourcePath, `\`, "/")), Method: "deflate"}
	m.Members[archivePath] = append(m.Members[archivePath], info)
	return info, nil
}

// Extract records the call and returns the first matching member.
func (m *MockArchiver) Extract(archivePath, memberName, destDir string) (ports.MemberInfo, error) {
	m.ExtractCalls = append(m.ExtractCalls, ExtractCall{
		ArchivePath: archivePath,
		MemberName:  memberName,
		DestDir:     destDir,
	})
	if err, ok := m.Errors["Extract"]; ok {
		return ports.MemberInfo{}, err
	}
	info, ok := m.find(archivePath, memberName)
	if !ok {
		return ports.MemberInfo{}, &archive.Error{Kind: archive.MemberNotFound, Op: "extract", Path: memberName}
	}
	return info, nil
}

// List returns the seeded members of archivePath.
func (m *MockArchiver) List(archivePath string) ([]ports.MemberInfo, error) {
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	return m.Members[archivePath], nil
}

// ReadMember returns the seeded contents of the first matching member.
func (m *MockArchiver) ReadMember(archivePath, memberName string) ([]byte, error) {
	if err, ok := m.Errors["ReadMember"]; ok {
		return nil, err
	}
	info, ok := m.find(archivePath, memberName)
	if !ok {
		return nil, &archive.Error{Kind: archive.MemberNotFound, Op: "extract", Path: memberName}
	}
	return m.Contents[archivePath+":"+info.Name], nil
}

// Verify returns canned results, or reports every member as intact.
func (m *MockArchiver) Verify(archivePath string) ([]ports.VerifyResult, error) {
	if err, ok := m.Errors["Verify"]; ok {
		return nil, err
	}
	if results, ok := m.VerifyResults[archivePath]; ok {
		return results, nil
	}
	var results []ports.VerifyResult
	for _, info := range m.Members[archivePath] {
		results = append(results, ports.VerifyResult{Name: info.Name})
	}
	return results, nil
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)
