package id3tag

import (
	"bytes"
	"strings"
)

// Check reports whether buf begins with an ID3v2 tag. The signature
// may sit anywhere within the first 20 bytes.
func Check(buf []byte) bool {
	return indexSignature(buf) >= 0
}

func indexSignature(buf []byte) int {
	window := buf
	if len(window) > signatureWindow {
		window = window[:signatureWindow]
	}
	return bytes.Index(window, id3byte)
}

// Decode parses the ID3v2 tag at the start of buf.
//
// Decode always returns a valid tag. In the case of an error, the
// tag will be empty. Malformed frame data never produces an error:
// truncated or corrupt trailing frames are dropped and the frames
// parsed so far are kept.
func Decode(buf []byte) (*Tag, error) {
	tag := NewTag()

	idx := indexSignature(buf)
	if idx < 0 {
		return tag, notATagHeader{Magic: head(buf, 3)}
	}
	buf = buf[idx:]

	if len(buf) < tagHeaderSize {
		return tag, notATagHeader{Magic: head(buf, 3)}
	}

	version := Version(int16(buf[3])<<8 | int16(buf[4]))
	if buf[3] != 3 && buf[3] != 4 {
		return tag, UnsupportedVersion{version}
	}

	var sizeBytes [4]byte
	copy(sizeBytes[:], buf[6:10])
	for _, b := range sizeBytes {
		if b&0x80 > 0 {
			return tag, InvalidTagSize{sizeBytes}
		}
	}
	size := int(decodeSize(sizeBytes))

	tag.Header = TagHeader{
		Version: version,
		Flags:   HeaderFlags(buf[5]),
		size:    size,
	}

	body := buf[tagHeaderSize:]
	if len(body) > size {
		body = body[:size]
	}

	decodeFrames(tag, body, version)

	return tag, nil
}

func head(buf []byte, n int) []byte {
	if len(buf) < n {
		n = len(buf)
	}
	return buf[:n]
}

// rawFrame is one undecoded frame produced by the splitter.
type rawFrame struct {
	id             FrameType
	flags          FrameFlags
	body           []byte
	unsynchronised bool
}

// splitFrames slices a tag body into its raw frames. It stops
// silently at the padding region, at the end of the buffer, or at a
// frame whose declared size exceeds what is left; a malformed tail
// truncates the frame list rather than failing the read.
func splitFrames(body []byte, version Version) []rawFrame {
	headerSize, idWidth := frameHeaderSize, 4
	if version>>8 == 2 {
		headerSize, idWidth = frameHeaderSizeV2, 3
	}

	var frames []rawFrame
	for len(body) > 0 {
		if body[0] == 0 {
			break
		}
		if len(body) < headerSize {
			break
		}
		if !validFrameID(body[:idWidth]) {
			break
		}

		var (
			size  int
			flags FrameFlags
		)
		switch version >> 8 {
		case 2:
			size = int(body[3])<<16 | int(body[4])<<8 | int(body[5])
		case 4:
			var sizeBytes [4]byte
			copy(sizeBytes[:], body[4:8])
			size = int(decodeSize(sizeBytes))
			flags = FrameFlags(uint16(body[8])<<8 | uint16(body[9]))
		default:
			size = int(beUint32(body[4:8]))
			flags = FrameFlags(uint16(body[8])<<8 | uint16(body[9]))
		}

		if size > len(body)-headerSize {
			Logging.Println("Frame", string(body[:idWidth]), "exceeds remaining tag body, truncating")
			break
		}

		frame := rawFrame{
			id:             FrameType(body[:idWidth]),
			flags:          flags,
			body:           body[headerSize : headerSize+size],
			unsynchronised: flags.Unsynchronised(),
		}
		if flags.DataLengthIndicator() && len(frame.body) >= 4 {
			frame.body = frame.body[4:]
		}
		frames = append(frames, frame)

		body = body[headerSize+size:]
	}

	return frames
}

func validFrameID(id []byte) bool {
	for _, b := range id {
		if b >= '0' && b <= '9' {
			continue
		}
		if b >= 'A' && b <= 'Z' {
			continue
		}
		return false
	}
	return true
}

func decodeFrames(tag *Tag, body []byte, version Version) {
	for _, rf := range splitFrames(body, version) {
		frame := decodeFrame(rf, version)
		if frame != nil {
			tag.addFrame(frame)
		}
	}
}

// decodeFrame dispatches a raw frame to its codec. Frames without a
// codec are kept as UnsupportedFrame, which surfaces in the raw view
// only when its body decodes as text.
func decodeFrame(rf rawFrame, version Version) Frame {
	header := FrameHeader{id: rf.id, flags: rf.flags}

	body := rf.body
	// APIC bodies keep their escapes until the image payload has been
	// extracted; see decodePictureFrame.
	if rf.unsynchronised && rf.id != "APIC" {
		Logging.Println("Removing unsynchronisation escapes from", rf.id)
		body = deunsynchronize(body)
	}

	if rf.id[0] == 'T' && rf.id != "TXXX" {
		return decodeTextFrame(header, body, version)
	}

	switch rf.id {
	case "COMM":
		return decodeCommentFrame(header, body)
	case "USLT":
		return UnsynchronisedLyricsFrame(decodeCommentFrame(header, body))
	case "APIC":
		return decodePictureFrame(header, body, rf.unsynchronised)
	case "TXXX":
		return decodeUserDefinedFrame(header, body)
	case "POPM":
		return decodePopularimeterFrame(header, body)
	case "CHAP":
		return decodeChapterFrame(header, body)
	default:
		return UnsupportedFrame{FrameHeader: header, Data: body}
	}
}

func decodeTextFrame(header FrameHeader, body []byte, version Version) Frame {
	frame := TextInformationFrame{FrameHeader: header}
	if len(body) == 0 {
		return frame
	}

	enc := resolveEncoding(body[0])
	for _, segment := range splitNull(body[1:], enc) {
		frame.Values = append(frame.Values, string(enc.toUTF8(segment)))
	}

	// Some v2.3 writers joined multiple values with an ad hoc
	// separator instead of null bytes.
	if sep, ok := v23Separators[header.id]; ok && version>>8 == 3 {
		var split []string
		for _, v := range frame.Values {
			split = append(split, strings.Split(v, sep)...)
		}
		frame.Values = split
	}

	return frame
}

// decodeCommentFrame parses the layout shared by COMM and USLT:
// encoding byte, 3 byte language, null terminated description, text.
func decodeCommentFrame(header FrameHeader, body []byte) CommentFrame {
	frame := CommentFrame{FrameHeader: header, Language: "eng"}
	if len(body) < 4 {
		return frame
	}

	enc := resolveEncoding(body[0])
	if lang := body[1:4]; validLanguage(lang) {
		frame.Language = string(lang)
	}

	parts := splitNullN(body[4:], enc, 2)
	frame.Description = string(enc.toUTF8(parts[0]))
	if len(parts) > 1 {
		frame.Text = string(enc.toUTF8(parts[1]))
	}

	return frame
}

func validLanguage(lang []byte) bool {
	for _, b := range lang {
		if b >= 'a' && b <= 'z' {
			continue
		}
		if b >= 'A' && b <= 'Z' {
			continue
		}
		return false
	}
	return true
}

func decodePictureFrame(header FrameHeader, body []byte, unsynchronised bool) Frame {
	frame := PictureFrame{FrameHeader: header}
	if len(body) < 2 {
		return frame
	}

	enc := resolveEncoding(body[0])

	mimeEnd := bytes.IndexByte(body[1:], 0)
	if mimeEnd < 0 {
		return frame
	}
	frame.MIMEType = string(EncodingISO88591.toUTF8(body[1 : 1+mimeEnd]))

	rest := body[1+mimeEnd+1:]
	if len(rest) == 0 {
		return frame
	}
	frame.PictureType = PictureType(rest[0])

	parts := splitNullN(rest[1:], enc, 2)
	frame.Description = string(enc.toUTF8(parts[0]))
	if len(parts) > 1 {
		data := parts[1]
		if unsynchronised {
			data = deunsynchronize(data)
		}
		frame.Data = data
	}

	return frame
}

func decodeUserDefinedFrame(header FrameHeader, body []byte) Frame {
	frame := UserDefinedFrame{FrameHeader: header}
	if len(body) == 0 {
		return frame
	}

	enc := resolveEncoding(body[0])
	parts := splitNullN(body[1:], enc, 2)
	frame.Description = string(enc.toUTF8(parts[0]))
	if len(parts) > 1 {
		for _, segment := range splitNull(parts[1], enc) {
			frame.Values = append(frame.Values, string(enc.toUTF8(segment)))
		}
	}

	return frame
}

// decodePopularimeterFrame parses a null terminated Latin-1 email, a
// rating byte and a 4 byte big-endian play counter. Truncated bodies
// yield whatever fields were present.
func decodePopularimeterFrame(header FrameHeader, body []byte) Frame {
	frame := PopularimeterFrame{FrameHeader: header}

	i := bytes.IndexByte(body, 0)
	if i < 0 {
		return frame
	}
	frame.Email = string(EncodingISO88591.toUTF8(body[:i]))

	rest := body[i+1:]
	if len(rest) >= 1 {
		frame.Rating = int(rest[0])
	}
	if len(rest) >= 5 {
		frame.Counter = int64(beUint32(rest[1:5]))
	}

	return frame
}

// decodeChapterFrame parses a CHAP frame. Whatever follows the fixed
// fields is parsed recursively as a nested tag body; sub-frames
// always use the v2.4 frame header layout regardless of the outer
// tag's version.
func decodeChapterFrame(header FrameHeader, body []byte) Frame {
	frame := ChapterFrame{FrameHeader: header}

	i := bytes.IndexByte(body, 0)
	if i < 0 {
		return frame
	}
	rest := body[i+1:]
	if len(rest) < 16 {
		return frame
	}

	frame.ElementID = string(EncodingISO88591.toUTF8(body[:i]))
	frame.StartTime = beUint32(rest[0:4])
	frame.EndTime = beUint32(rest[4:8])
	if v := beUint32(rest[8:12]); v != chapterOffsetAbsent {
		offset := v
		frame.StartOffset = &offset
	}
	if v := beUint32(rest[12:16]); v != chapterOffsetAbsent {
		offset := v
		frame.EndOffset = &offset
	}

	if sub := rest[16:]; len(sub) > 0 {
		subTag := NewTag()
		subTag.Header.Version = ID3v24
		decodeFrames(subTag, sub, ID3v24)
		if len(subTag.Frames) > 0 {
			frame.SubTag = subTag
		}
	}

	return frame
}
