package id3tag

import "io"

// Bytes renders the tag as a v2.4 buffer: a 10 byte header followed
// by the concatenated frames. No padding is appended; padding is a
// file rewrite concern, see (*File).Save.
func (t *Tag) Bytes() []byte {
	frames := t.encodeFrames()
	return concat(tagHeaderBytes(len(frames)), frames)
}

// Encode writes the rendered tag to w.
func (t *Tag) Encode(w io.Writer) error {
	_, err := w.Write(t.Bytes())
	return err
}

func (t *Tag) encodeFrames() []byte {
	var out []byte
	for _, frames := range t.Frames {
		for _, frame := range frames {
			out = append(out, serializeFrame(frame)...)
		}
	}
	return out
}

// tagHeaderBytes builds the v2.4 tag header for a body of bodySize
// bytes. The size field is synchsafe and excludes the header itself.
func tagHeaderBytes(bodySize int) []byte {
	size := encodeSize(uint32(bodySize))
	out := make([]byte, 0, tagHeaderSize)
	out = append(out, id3byte...)
	out = append(out, versionByte...)
	out = append(out, 0) // flags; never unsynchronised on write
	out = append(out, size[:]...)
	return out
}

// serializeFrame renders one frame with its v2.4 header. Frames
// whose Encode returns nil (a required field is missing) are omitted
// entirely rather than failing the write.
func serializeFrame(f Frame) []byte {
	body := f.Encode()
	if body == nil {
		return nil
	}

	size := encodeSize(uint32(len(body)))
	header := make([]byte, frameHeaderSize)
	copy(header, f.ID())
	copy(header[4:8], size[:])
	// header[8:10] left zero: no frame flags on write

	return concat(header, body)
}
