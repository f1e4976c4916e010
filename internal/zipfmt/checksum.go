package zipfmt

import (
	"hash/crc32"
	"time"
)

// ieeeTable is the table for the reflected polynomial 0xEDB88320 used by ZIP.
var ieeeTable = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32 of b as stored in ZIP headers.
func Checksum(b []byte) uint32 {
	return crc32.Checksum(b, ieeeTable)
}

// TimeToMSDos packs t into DOS time and date words. Years before 1980 clamp to 1980.
func TimeToMSDos(t time.Time) (uint16, uint16) {
	year := t.Year() - 1980
	if year < 0 {
		return 0, 1<<5 | 1 // 1980-01-01 00:00:00
	}
	if year > 127 {
		year = 127
	}
	dosDate := uint16(year<<9 | int(t.Month())<<5 | t.Day())
	dosTime := uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return dosTime, dosDate
}

// MSDosToTime unpacks DOS time and date words into a local time. DOS
// timestamps carry no zone.
func MSDosToTime(dosTime, dosDate uint16) time.Time {
	return time.Date(
		int(dosDate>>9)+1980,
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f)*2,
		0,
		time.Local,
	)
}
