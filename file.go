package id3tag

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Padding is the number of padding bytes reserved after the tag when
// a file has to be rewritten. Reserved space lets later saves rewrite
// the tag in place instead of shifting the whole file.
var Padding = 2048

// paddingSlack bounds how much reserved space an in-place save may
// leave unused before a full rewrite is preferred to reclaim it.
const paddingSlack = 10240

// File is a tagged file on disk. The codec itself only works on
// buffers; File supplies the read-modify-write glue around it.
// Concurrent writers of the same path must be serialized by the
// caller.
type File struct {
	f        *os.File
	fileSize int64

	// tagRegion is the size of the tag area currently on disk,
	// including the 10 byte header and any padding. Zero when the
	// file has no tag yet.
	tagRegion int64

	Tag *Tag
}

// Open opens the file with the given name in RW mode and parses its
// tag. If there is no tag, (*File).HasTag will return false and an
// empty tag is ready to be filled in.
//
// Call Close to close the underlying *os.File when done.
func Open(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "id3tag: open")
	}

	file, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return file, nil
}

// NewFile parses the tag of an existing *os.File. If you plan to
// save tags the file needs to be opened read and write.
func NewFile(f *os.File) (*File, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "id3tag: stat")
	}

	header := make([]byte, signatureWindow+tagHeaderSize)
	n, err := f.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "id3tag: read header")
	}
	header = header[:n]

	file := &File{
		f:        f,
		fileSize: stat.Size(),
		Tag:      NewTag(),
	}

	idx := indexSignature(header)
	if idx < 0 {
		return file, nil
	}

	if len(header) < idx+tagHeaderSize {
		return file, nil
	}
	var sizeBytes [4]byte
	copy(sizeBytes[:], header[idx+6:idx+10])
	for _, b := range sizeBytes {
		if b&0x80 > 0 {
			return nil, InvalidTagSize{sizeBytes}
		}
	}
	region := int64(idx) + tagHeaderSize + int64(decodeSize(sizeBytes))
	if region > stat.Size() {
		region = stat.Size()
	}

	buf := make([]byte, region)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, errors.Wrap(err, "id3tag: read tag")
	}

	tag, err := Decode(buf)
	if err != nil {
		switch err.(type) {
		case notATagHeader, UnsupportedVersion:
			return file, nil
		default:
			return nil, err
		}
	}

	file.Tag = tag
	file.tagRegion = region
	return file, nil
}

// HasTag returns true when the underlying file has a tag.
func (f *File) HasTag() bool {
	return f.Tag.Header.Version > 0
}

// Save writes the tag back to the file. When the rendered tag fits
// the reserved region on disk and wastes no more than paddingSlack
// bytes of it, the tag is rewritten in place, declaring the leftover
// space as padding. Otherwise the whole file is rewritten with a
// fresh padding reserve of Padding bytes.
func (f *File) Save() error {
	rendered := f.Tag.Bytes()
	need := int64(len(rendered))

	if f.tagRegion >= need && f.tagRegion <= need+paddingSlack {
		return f.saveInPlace(rendered)
	}
	return f.rewrite(rendered)
}

func (f *File) saveInPlace(rendered []byte) error {
	buf := make([]byte, f.tagRegion)
	copy(buf, rendered)

	// The size field must cover the padding so readers skip it.
	size := encodeSize(uint32(f.tagRegion - tagHeaderSize))
	copy(buf[6:10], size[:])

	if _, err := f.f.WriteAt(buf, 0); err != nil {
		return errors.Wrap(err, "id3tag: save")
	}
	f.Tag.Header.Version = ID3v24
	return nil
}

func (f *File) rewrite(rendered []byte) error {
	audio := make([]byte, f.fileSize-f.tagRegion)
	if _, err := f.f.ReadAt(audio, f.tagRegion); err != nil && err != io.EOF {
		return errors.Wrap(err, "id3tag: read audio")
	}

	region := int64(len(rendered) + Padding)
	buf := make([]byte, region, region+int64(len(audio)))
	copy(buf, rendered)
	size := encodeSize(uint32(region - tagHeaderSize))
	copy(buf[6:10], size[:])
	buf = append(buf, audio...)

	if err := f.f.Truncate(0); err != nil {
		return errors.Wrap(err, "id3tag: truncate")
	}
	if _, err := f.f.WriteAt(buf, 0); err != nil {
		return errors.Wrap(err, "id3tag: rewrite")
	}

	f.fileSize = int64(len(buf))
	f.tagRegion = region
	f.Tag.Header.Version = ID3v24
	return nil
}

// Close closes the underlying *os.File.
func (f *File) Close() error {
	return f.f.Close()
}
