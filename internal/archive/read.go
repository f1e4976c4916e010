package archive

// ReadMember returns the bytes of the first member matching memberName
// case-insensitively, verified against its CRC-32. Members larger than
// maxMemberSize fail with OutOfMemory; zero means no limit.
func ReadMember(archivePath, memberName string, maxMemberSize int64) ([]byte, Member, error) {
	h, err := Open(archivePath, ModeRead)
	if err != nil {
		return nil, Member{}, err
	}
	defer func() { _ = h.Close() }()
	h.SetMaxMemberSize(maxMemberSize)

	m, ok := h.Find(memberName)
	if !ok {
		return nil, Member{}, newError(MemberNotFound, "extract", memberName, nil)
	}
	data, err := h.Read(m)
	if err != nil {
		return nil, m, err
	}
	return data, m, nil
}

// List returns the members of the archive at archivePath in directory order.
func List(archivePath string) ([]Member, error) {
	h, err := Open(archivePath, ModeRead)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	return h.Members(), nil
}

// VerifyResult is the outcome of checking one member.
type VerifyResult struct {
	Member Member
	Err    error
}

// OK reports whether the member decompressed and matched its checksum.
func (r VerifyResult) OK() bool { return r.Err == nil }

// Verify reads every member of the archive and checks its CRC-32. The
// returned error is only set when the archive itself cannot be opened;
// per-member failures are reported in the results. maxMemberSize applies to
// each member as in ReadMember.
func Verify(archivePath string, maxMemberSize int64) ([]VerifyResult, error) {
	h, err := Open(archivePath, ModeRead)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()
	h.SetMaxMemberSize(maxMemberSize)

	members := h.Members()
	results := make([]VerifyResult, 0, len(members))
	for _, m := range members {
		_, err := h.Read(m)
		results = append(results, VerifyResult{Member: m, Err: err})
	}
	return results, nil
}
