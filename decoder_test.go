package id3tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTag(version byte, frames ...[]byte) []byte {
	var body []byte
	for _, f := range frames {
		body = append(body, f...)
	}

	size := encodeSize(uint32(len(body)))
	out := []byte{'I', 'D', '3', version, 0, 0}
	out = append(out, size[:]...)
	return append(out, body...)
}

func buildFrame23(id string, body []byte) []byte {
	out := []byte(id)
	out = append(out, beUint32Bytes(uint32(len(body)))...)
	out = append(out, 0, 0)
	return append(out, body...)
}

func buildFrame24(id string, flags uint16, body []byte) []byte {
	out := []byte(id)
	size := encodeSize(uint32(len(body)))
	out = append(out, size[:]...)
	out = append(out, byte(flags>>8), byte(flags))
	return append(out, body...)
}

func TestCheck(t *testing.T) {
	assert.False(t, Check(nil))
	assert.False(t, Check([]byte("MP3 data without a tag anywhere")))
	assert.True(t, Check([]byte("ID3\x04\x00\x00\x00\x00\x00\x00")))

	// signature may sit anywhere within the first 20 bytes
	junk := append([]byte("junkjunk"), []byte("ID3\x04\x00\x00\x00\x00\x00\x00")...)
	assert.True(t, Check(junk))

	far := append(make([]byte, 25), id3byte...)
	assert.False(t, Check(far))
}

func TestDecodeNotATag(t *testing.T) {
	_, err := Decode([]byte("RIFF....WAVE"))
	require.Error(t, err)
	assert.IsType(t, notATagHeader{}, err)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	_, err := Decode(buildTag(2))
	require.Error(t, err)
	assert.Equal(t, UnsupportedVersion{ID3v22}, err)
}

func TestDecodeInvalidTagSize(t *testing.T) {
	buf := buildTag(4)
	buf[6] = 0x80
	_, err := Decode(buf)
	require.Error(t, err)
	assert.IsType(t, InvalidTagSize{}, err)
}

func TestDecodeSignatureOffset(t *testing.T) {
	frame := buildFrame24("TIT2", 0, []byte("\x03Song"))
	buf := append([]byte{0xFF, 0xFB, 0x90}, buildTag(4, frame)...)

	tag, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "Song", tag.Title())
}

func TestSplitFramesPaddingOnly(t *testing.T) {
	assert.Empty(t, splitFrames(make([]byte, 64), ID3v24))
	assert.Empty(t, splitFrames(nil, ID3v24))
}

func TestSplitFramesTruncated(t *testing.T) {
	good := buildFrame24("TIT2", 0, []byte("\x03Song"))

	// second frame claims more bytes than remain
	bad := buildFrame24("TALB", 0, []byte("\x03Album"))
	bad[7] = 0x7F

	frames := splitFrames(append(good, bad...), ID3v24)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameType("TIT2"), frames[0].id)
}

func TestSplitFramesVersionWidths(t *testing.T) {
	// v2.2: 3 byte identifier, 3 byte plain size, no flags
	v22 := []byte{'T', 'T', '2', 0, 0, 5, 0x03, 'S', 'o', 'n', 'g'}
	frames := splitFrames(v22, ID3v22)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameType("TT2"), frames[0].id)
	assert.Equal(t, []byte("\x03Song"), frames[0].body)

	// v2.3: plain big-endian 4 byte size
	frames = splitFrames(buildFrame23("TIT2", []byte("\x03Song")), ID3v23)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte("\x03Song"), frames[0].body)

	// v2.4: synchsafe size; 0x81 would decode very differently as
	// a plain integer
	body := make([]byte, 129)
	body[0] = 0x03
	frames = splitFrames(buildFrame24("TIT2", 0, body), ID3v24)
	require.Len(t, frames, 1)
	assert.Len(t, frames[0].body, 129)
}

func TestSplitFramesStopsAtGarbage(t *testing.T) {
	good := buildFrame24("TIT2", 0, []byte("\x03Song"))
	buf := append(good, []byte("\xDE\xAD\xBE\xEF garbage")...)

	frames := splitFrames(buf, ID3v24)
	require.Len(t, frames, 1)
}

func TestDeunsynchronize(t *testing.T) {
	assert.Equal(t, []byte{0xFF}, deunsynchronize([]byte{0xFF, 0x00}))
	assert.Equal(t, []byte{0xFF, 0xFB}, deunsynchronize([]byte{0xFF, 0x00, 0xFB}))
	assert.Equal(t, []byte{1, 2, 3}, deunsynchronize([]byte{1, 2, 3}))
	assert.Equal(t, []byte{0xFF, 0xFF, 0x01}, deunsynchronize([]byte{0xFF, 0x00, 0xFF, 0x00, 0x01}))

	in := []byte{0xFF, 0x00}
	out := deunsynchronize(in)
	out[0] = 0
	assert.Equal(t, byte(0xFF), in[0], "input buffer must not be mutated")
}

func TestDecodeUnsynchronisedTextFrame(t *testing.T) {
	// Latin-1 0xFF, escaped as FF 00 in the stream
	frame := buildFrame24("TIT2", 0x0002, []byte{0x00, 0xFF, 0x00})
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)
	assert.Equal(t, "ÿ", tag.Title())
}

func TestDecodeTextFrameMultiValue(t *testing.T) {
	frame := buildFrame24("TPE1", 0, []byte("\x03A\x00B\x00C"))
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, tag.Artists())
	assert.Equal(t, []string{"A", "B", "C"}, tag.Raw()["TPE1"])
}

func TestDecodeTextFrameLegacySeparators(t *testing.T) {
	artist := buildFrame23("TPE1", []byte("\x00A / B"))
	genre := buildFrame23("TCON", []byte("\x00Rock;Pop"))
	tag, err := Decode(buildTag(3, artist, genre))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, tag.Artists())
	assert.Equal(t, []string{"Rock", "Pop"}, tag.GetTextFrameSlice("TCON"))

	// the same bytes in a v2.4 tag stay a single value
	tag, err = Decode(buildTag(4, buildFrame24("TPE1", 0, []byte("\x00A / B"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"A / B"}, tag.Artists())
}

func TestDecodeCommentFrame(t *testing.T) {
	frame := buildFrame24("COMM", 0, []byte("\x03deudescr\x00some text"))
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)

	comments := tag.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, Comment{Language: "deu", Description: "descr", Text: "some text"}, comments[0])
}

func TestDecodeCommentFrameUTF16(t *testing.T) {
	body := []byte{0x01, 'e', 'n', 'g'}
	body = append(body, 0xFE, 0xFF, 0x00, 'd', 0x00, 0x00) // "d" + terminator
	body = append(body, 0xFE, 0xFF, 0x00, 't')             // "t"

	tag, err := Decode(buildTag(4, buildFrame24("COMM", 0, body)))
	require.NoError(t, err)

	comments := tag.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, Comment{Language: "eng", Description: "d", Text: "t"}, comments[0])
}

func TestDecodeCommentFrameUppercaseLanguage(t *testing.T) {
	// some writers emit uppercase codes; they are kept, not rewritten
	frame := buildFrame24("COMM", 0, []byte("\x03ENGd\x00t"))
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)

	comments := tag.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "ENG", comments[0].Language)
}

func TestDecodeCommentFrameBadLanguage(t *testing.T) {
	frame := buildFrame24("COMM", 0, []byte("\x03\x00\x00\x00d\x00t"))
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)

	comments := tag.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "eng", comments[0].Language)
}

func TestDecodeCommentFrameTruncated(t *testing.T) {
	frame := buildFrame24("COMM", 0, []byte{0x03})
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)

	comments := tag.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, Comment{Language: "eng"}, comments[0])
}

func TestDecodeLyricsFrame(t *testing.T) {
	frame := buildFrame24("USLT", 0, []byte("\x03engverse\x00la la la"))
	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)

	lyrics := tag.Lyrics()
	require.Len(t, lyrics, 1)
	assert.Equal(t, Lyrics{Language: "eng", Description: "verse", Text: "la la la"}, lyrics[0])
}

func TestDecodePictureFrame(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xAA, 0xBB}
	body := []byte("\x00image/jpeg\x00\x03cover\x00")
	body = append(body, img...)

	tag, err := Decode(buildTag(4, buildFrame24("APIC", 0, body)))
	require.NoError(t, err)

	pics := tag.Pictures()
	require.Len(t, pics, 1)
	assert.Equal(t, "image/jpeg", pics[0].MIMEType)
	assert.Equal(t, PictureTypeFrontCover, pics[0].Type)
	assert.Equal(t, "cover", pics[0].Description)
	assert.Equal(t, img, pics[0].Data)
}

func TestDecodePictureFrameUnsynchronised(t *testing.T) {
	// escaped image payload: FF 00 D8 -> FF D8
	body := []byte("\x00image/jpeg\x00\x03\x00")
	body = append(body, 0xFF, 0x00, 0xD8)

	tag, err := Decode(buildTag(4, buildFrame24("APIC", 0x0002, body)))
	require.NoError(t, err)

	pics := tag.Pictures()
	require.Len(t, pics, 1)
	assert.Equal(t, []byte{0xFF, 0xD8}, pics[0].Data)
}

func TestDecodeMultiplePictureFrames(t *testing.T) {
	front := buildFrame24("APIC", 0, []byte("\x00image/png\x00\x03front\x00\x89PNG"))
	back := buildFrame24("APIC", 0, []byte("\x00image/png\x00\x04back\x00\x89PNG"))

	tag, err := Decode(buildTag(4, front, back))
	require.NoError(t, err)

	require.Len(t, tag.Pictures(), 2)

	pics, ok := tag.Raw()["APIC"].([]Picture)
	require.True(t, ok, "multiple pictures must surface as a slice")
	require.Len(t, pics, 2)
	assert.Equal(t, "front", pics[0].Description)
	assert.Equal(t, "back", pics[1].Description)
}

func TestDecodePictureFrameMalformed(t *testing.T) {
	// no null terminator after the MIME string
	tag, err := Decode(buildTag(4, buildFrame24("APIC", 0, []byte("\x00image/png"))))
	require.NoError(t, err)

	pics := tag.Pictures()
	require.Len(t, pics, 1)
	assert.Empty(t, pics[0].MIMEType)
	assert.Empty(t, pics[0].Data)
}

func TestDecodeUserDefinedFrames(t *testing.T) {
	one := buildFrame24("TXXX", 0, []byte("\x03key\x00v1"))
	two := buildFrame24("TXXX", 0, []byte("\x03key\x00v2"))
	other := buildFrame24("TXXX", 0, []byte("\x03other\x00x"))

	tag, err := Decode(buildTag(4, one, two, other))
	require.NoError(t, err)

	merged := tag.UserDefined()
	assert.Equal(t, []string{"v1", "v2"}, merged["key"])
	assert.Equal(t, []string{"x"}, merged["other"])

	raw := tag.Raw()["TXXX"].(map[string]interface{})
	assert.Equal(t, []string{"v1", "v2"}, raw["key"])
	assert.Equal(t, "x", raw["other"])
}

func TestDecodePopularimeterFrame(t *testing.T) {
	body := []byte("user@example.com\x00")
	body = append(body, 196)
	body = append(body, beUint32Bytes(12345)...)

	tag, err := Decode(buildTag(4, buildFrame24("POPM", 0, body)))
	require.NoError(t, err)

	p, ok := tag.Popularimeter()
	require.True(t, ok)
	assert.Equal(t, Popularimeter{Email: "user@example.com", Rating: 196, Counter: 12345}, p)
}

func TestDecodePopularimeterFrameTruncated(t *testing.T) {
	// email and rating, no counter
	tag, err := Decode(buildTag(4, buildFrame24("POPM", 0, []byte("a@b\x00\x05"))))
	require.NoError(t, err)

	p, ok := tag.Popularimeter()
	require.True(t, ok)
	assert.Equal(t, Popularimeter{Email: "a@b", Rating: 5}, p)
}

func TestDecodeChapterFrame(t *testing.T) {
	body := []byte("chp0\x00")
	body = append(body, beUint32Bytes(1000)...)
	body = append(body, beUint32Bytes(2000)...)
	body = append(body, beUint32Bytes(0)...)
	body = append(body, beUint32Bytes(chapterOffsetAbsent)...)
	body = append(body, buildFrame24("TIT2", 0, []byte("\x03Intro"))...)

	tag, err := Decode(buildTag(4, buildFrame24("CHAP", 0, body)))
	require.NoError(t, err)

	chapters := tag.Chapters()
	require.Len(t, chapters, 1)
	c := chapters[0]
	assert.Equal(t, "chp0", c.ElementID)
	assert.Equal(t, uint32(1000), c.StartTime)
	assert.Equal(t, uint32(2000), c.EndTime)
	require.NotNil(t, c.StartOffset)
	assert.Equal(t, uint32(0), *c.StartOffset)
	assert.Nil(t, c.EndOffset)
	require.NotNil(t, c.SubTag)
	assert.Equal(t, "Intro", c.SubTag.Title())
}

func TestDecodeChapterFrameTooShort(t *testing.T) {
	body := []byte("chp0\x00")
	body = append(body, beUint32Bytes(1000)...) // times only, offsets missing

	tag, err := Decode(buildTag(4, buildFrame24("CHAP", 0, body)))
	require.NoError(t, err)

	chapters := tag.Chapters()
	require.Len(t, chapters, 1)
	assert.Equal(t, Chapter{}, chapters[0])
}

func TestDecodeUnknownFrame(t *testing.T) {
	textish := buildFrame24("TDTG", 0, []byte("\x032020-01-01"))
	binary := buildFrame24("PRIV", 0, []byte{0xDE, 0xAD})

	tag, err := Decode(buildTag(4, textish, binary))
	require.NoError(t, err)

	raw := tag.Raw()
	assert.Equal(t, "2020-01-01", raw["TDTG"])
	_, ok := raw["PRIV"]
	assert.False(t, ok, "non-text unknown frames are dropped from the raw view")

	// the frame itself is still carried
	assert.True(t, tag.HasFrame("PRIV"))
}

func TestLegacyDateRemap(t *testing.T) {
	tag, err := Decode(buildTag(3, buildFrame23("TYER", []byte("\x002004"))))
	require.NoError(t, err)

	fields := tag.Fields()
	assert.Equal(t, "2004", fields["date"])

	// a real TDRC wins over the legacy frames
	tdrc := buildFrame23("TDRC", []byte("\x002010-01-01"))
	tyer := buildFrame23("TYER", []byte("\x002004"))
	tag, err = Decode(buildTag(3, tdrc, tyer))
	require.NoError(t, err)
	assert.Equal(t, "2010-01-01", tag.Fields()["date"])
}

func TestDecodeDataLengthIndicator(t *testing.T) {
	body := append(beUint32Bytes(5), []byte("\x03Song")...)
	frame := buildFrame24("TIT2", 0x0001, body)

	tag, err := Decode(buildTag(4, frame))
	require.NoError(t, err)
	assert.Equal(t, "Song", tag.Title())
}
