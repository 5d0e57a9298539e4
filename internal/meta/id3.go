package meta

import (
	"io"
	"os"
)

// id3v2HeaderSize is the fixed header in front of every ID3v2 tag.
const id3v2HeaderSize = 10

// ID3v2Size returns the total byte size of a leading ID3v2 tag described by
// header, or 0 when header does not start one. The size field is syncsafe:
// four bytes of seven significant bits each.
func ID3v2Size(header []byte) int64 {
	if len(header) < id3v2HeaderSize {
		return 0
	}
	if header[0] != 'I' || header[1] != 'D' || header[2] != '3' {
		return 0
	}
	for _, b := range header[6:10] {
		if b&0x80 != 0 {
			return 0
		}
	}
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	size += id3v2HeaderSize
	if header[5]&0x10 != 0 {
		// Footer flag: the tag carries a trailing copy of the header.
		size += id3v2HeaderSize
	}
	return size
}

// SkipID3v2 returns a reader over f with any leading ID3v2 tag cut off, so
// stale tag bytes never reach the decoder. Files without a tag (or nothing
// but a tag) are returned whole.
func SkipID3v2(f *os.File) (io.ReadSeeker, error) {
	var header [id3v2HeaderSize]byte
	n, err := f.ReadAt(header[:], 0)
	if err != nil && err != io.EOF {
		return nil, err
	}

	offset := ID3v2Size(header[:n])
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if offset == 0 || offset >= info.Size() {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return f, nil
	}
	return io.NewSectionReader(f, offset, info.Size()-offset), nil
}
