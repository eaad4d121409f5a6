package id3tag

import (
	"bytes"
	"strings"
)

var FrameNames = map[FrameType]string{
	"APIC": "Attached picture",
	"CHAP": "Chapters",
	"COMM": "Comments",

	"POPM": "Popularimeter",

	"TALB": "Album/Movie/Show title",
	"TBPM": "BPM (beats per minute)",
	"TCOM": "Composer",
	"TCON": "Content type",
	"TCOP": "Copyright message",
	"TDEN": "Encoding time",
	"TDLY": "Playlist delay",
	"TDOR": "Original release time",
	"TDRC": "Recording time",
	"TDRL": "Release time",
	"TDTG": "Tagging time",
	"TENC": "Encoded by",
	"TEXT": "Lyricist/Text writer",
	"TFLT": "File type",
	"TIME": "Time",
	"TIT1": "Content group description",
	"TIT2": "Title/songname/content description",
	"TIT3": "Subtitle/Description refinement",
	"TKEY": "Initial key",
	"TLAN": "Language(s)",
	"TLEN": "Length",
	"TMED": "Media type",
	"TMOO": "Mood",
	"TOAL": "Original album/movie/show title",
	"TOFN": "Original filename",
	"TOLY": "Original lyricist(s)/text writer(s)",
	"TOPE": "Original artist(s)/performer(s)",
	"TOWN": "File owner/licensee",
	"TPE1": "Lead performer(s)/Soloist(s)",
	"TPE2": "Band/orchestra/accompaniment",
	"TPE3": "Conductor/performer refinement",
	"TPE4": "Interpreted, remixed, or otherwise modified by",
	"TPOS": "Part of a set",
	"TPUB": "Publisher",
	"TRCK": "Track number/Position in set",
	"TRDA": "Recording dates",
	"TSOA": "Album sort order",
	"TSOP": "Performer sort order",
	"TSOT": "Title sort order",
	"TSRC": "ISRC (international standard recording code)",
	"TSSE": "Software/Hardware and settings used for encoding",
	"TYER": "Year",
	"TXXX": "User defined text information frame",

	"USLT": "Unsynchronised lyric/text transcription",
}

var PictureTypes = []string{
	"Other",
	"32x32 pixels 'file icon' (PNG only)",
	"Other file icon",
	"Cover (front)",
	"Cover (back)",
	"Leaflet page",
	"Media (e.g. label side of CD)",
	"Lead artist/lead performer/soloist",
	"Artist/performer",
	"Conductor",
	"Band/Orchestra",
	"Composer",
	"Lyricist/text writer",
	"Recording Location",
	"During recording",
	"During performance",
	"Movie/video screen capture",
	"A bright coloured fish",
	"Illustration",
	"Band/artist logotype",
	"Publisher/Studio logotype",
}

// PictureTypeFrontCover is the picture type attached pictures are
// written with.
const PictureTypeFrontCover PictureType = 3

// aliasToFrame maps field aliases to frame identifiers. The reverse
// table is derived once at init; both directions are fixed after
// that.
var aliasToFrame = map[string]FrameType{
	"album":                "TALB",
	"artist":               "TPE1",
	"bpm":                  "TBPM",
	"chapter":              "CHAP",
	"comment":              "COMM",
	"composer":             "TCOM",
	"conductor":            "TPE3",
	"copyright":            "TCOP",
	"date":                 "TDRC",
	"encodedBy":            "TENC",
	"fileType":             "TFLT",
	"genre":                "TCON",
	"image":                "APIC",
	"initialKey":           "TKEY",
	"language":             "TLAN",
	"length":               "TLEN",
	"mediaType":            "TMED",
	"mood":                 "TMOO",
	"originalArtist":       "TOPE",
	"originalFilename":     "TOFN",
	"originalTitle":        "TOAL",
	"partOfSet":            "TPOS",
	"performerInfo":        "TPE2",
	"popularimeter":        "POPM",
	"publisher":            "TPUB",
	"remixArtist":          "TPE4",
	"subtitle":             "TIT3",
	"title":                "TIT2",
	"trackNumber":          "TRCK",
	"unsynchronisedLyrics": "USLT",
	"userDefined":          "TXXX",
	"writer":               "TEXT",
}

var frameToAlias = make(map[FrameType]string, len(aliasToFrame))

func init() {
	for alias, id := range aliasToFrame {
		frameToAlias[id] = alias
	}
}

// AliasToFrame resolves a field name to its frame identifier. It
// accepts either a human alias or a raw identifier.
func AliasToFrame(name string) (FrameType, bool) {
	if id, ok := aliasToFrame[name]; ok {
		return id, true
	}
	if _, ok := frameToAlias[FrameType(name)]; ok {
		return FrameType(name), true
	}
	return "", false
}

// FrameToAlias resolves a frame identifier to its field alias. It
// accepts either a raw identifier or an alias.
func FrameToAlias(id FrameType) (string, bool) {
	if alias, ok := frameToAlias[id]; ok {
		return alias, true
	}
	if _, ok := aliasToFrame[string(id)]; ok {
		return string(id), true
	}
	return "", false
}

type FrameHeader struct {
	id    FrameType
	flags FrameFlags
}

func (h FrameHeader) Header() FrameHeader { return h }

func (h FrameHeader) ID() FrameType {
	return h.id
}

// Frame is one decoded field record of a tag. Encode renders the
// frame body (without the frame header) in the v2.4 layout, or nil
// when a required field is missing and the frame must be omitted from
// the output.
type Frame interface {
	ID() FrameType
	Header() FrameHeader
	Value() string
	Encode() []byte
}

// Comment, Lyrics, Picture, Popularimeter and Chapter are the plain
// models handed out and accepted by the Tag accessors.
type Comment struct {
	Language    string
	Description string
	Text        string
}

type Lyrics struct {
	Language    string
	Description string
	Text        string
}

type Picture struct {
	MIMEType    string
	Type        PictureType
	Description string
	Data        []byte
}

type Popularimeter struct {
	Email   string
	Rating  int
	Counter int64
}

// Chapter describes one CHAP frame. Times are milliseconds. The byte
// offsets are optional: nil means the writer did not provide them,
// which is distinct from an offset of zero.
type Chapter struct {
	ElementID   string
	StartTime   uint32
	EndTime     uint32
	StartOffset *uint32
	EndOffset   *uint32
	SubTag      *Tag
}

type TextInformationFrame struct {
	FrameHeader
	Values []string
}

type UserDefinedFrame struct {
	FrameHeader
	Description string
	Values      []string
}

type CommentFrame struct {
	FrameHeader
	Language    string
	Description string
	Text        string
}

type UnsynchronisedLyricsFrame struct {
	FrameHeader
	Language    string
	Description string
	Text        string
}

type PictureFrame struct {
	FrameHeader
	MIMEType    string
	PictureType PictureType
	Description string
	Data        []byte
}

type PopularimeterFrame struct {
	FrameHeader
	Email   string
	Rating  int
	Counter int64
}

type ChapterFrame struct {
	FrameHeader
	ElementID   string
	StartTime   uint32
	EndTime     uint32
	StartOffset *uint32
	EndOffset   *uint32
	SubTag      *Tag
}

type UnsupportedFrame struct {
	FrameHeader
	Data []byte
}

func (f TextInformationFrame) Value() string {
	return strings.Join(f.Values, "\x00")
}

func (f TextInformationFrame) Encode() []byte {
	if len(f.Values) == 0 {
		return nil
	}

	return concat(utf8byte, []byte(strings.Join(f.Values, "\x00")))
}

func (f UserDefinedFrame) Value() string {
	return strings.Join(f.Values, "\x00")
}

func (f UserDefinedFrame) Encode() []byte {
	if f.Description == "" && len(f.Values) == 0 {
		return nil
	}

	return concat(utf8byte, []byte(f.Description), nul,
		[]byte(strings.Join(f.Values, "\x00")))
}

func (f CommentFrame) Value() string {
	return f.Text
}

func (f CommentFrame) Encode() []byte {
	if f.Text == "" {
		return nil
	}

	return concat(utf8byte, languageBytes(f.Language),
		[]byte(f.Description), nul, []byte(f.Text))
}

func (f UnsynchronisedLyricsFrame) Value() string {
	return f.Text
}

func (f UnsynchronisedLyricsFrame) Encode() []byte {
	if f.Text == "" {
		return nil
	}

	return concat(utf8byte, languageBytes(f.Language),
		[]byte(f.Description), nul, []byte(f.Text))
}

func (f PictureFrame) Value() string {
	return f.MIMEType
}

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// sniffMIME infers the image MIME type from the payload's magic
// bytes. Anything that is not a JPEG is written as PNG.
func sniffMIME(data []byte) string {
	if bytes.HasPrefix(data, jpegMagic) {
		return "image/jpeg"
	}
	return "image/png"
}

func (f PictureFrame) Encode() []byte {
	if len(f.Data) == 0 {
		return nil
	}

	return concat(
		[]byte{byte(EncodingISO88591)},
		[]byte(sniffMIME(f.Data)), nul,
		[]byte{byte(PictureTypeFrontCover)},
		toISO88591([]byte(f.Description)), nul,
		f.Data,
	)
}

func (f PopularimeterFrame) Value() string {
	return f.Email
}

func (f PopularimeterFrame) Encode() []byte {
	if f.Email == "" {
		return nil
	}

	rating := f.Rating
	if rating < 0 || rating > 255 {
		rating = 0
	}
	counter := f.Counter
	if counter < 0 {
		counter = 0
	}
	if counter > 0xFFFFFFFF {
		counter = 0xFFFFFFFF
	}

	return concat(
		toISO88591([]byte(f.Email)), nul,
		[]byte{byte(rating)},
		beUint32Bytes(uint32(counter)),
	)
}

func (f ChapterFrame) Value() string {
	return f.ElementID
}

// chapterOffsetAbsent is the sentinel written for a chapter byte
// offset the caller did not provide.
const chapterOffsetAbsent uint32 = 0xFFFFFFFF

func (f ChapterFrame) Encode() []byte {
	if f.ElementID == "" {
		return nil
	}

	var sub []byte
	if f.SubTag != nil {
		for _, frames := range f.SubTag.Frames {
			for _, frame := range frames {
				sub = append(sub, serializeFrame(frame)...)
			}
		}
	}

	return concat(
		toISO88591([]byte(f.ElementID)), nul,
		beUint32Bytes(f.StartTime),
		beUint32Bytes(f.EndTime),
		beUint32Bytes(offsetOrAbsent(f.StartOffset)),
		beUint32Bytes(offsetOrAbsent(f.EndOffset)),
		sub,
	)
}

func offsetOrAbsent(v *uint32) uint32 {
	if v == nil {
		return chapterOffsetAbsent
	}
	return *v
}

func (f UnsupportedFrame) Value() string {
	s, _ := f.text()
	return s
}

// text attempts to interpret the raw body as a text frame body; used
// for the raw view of frames without a dedicated codec.
func (f UnsupportedFrame) text() (string, bool) {
	if len(f.Data) < 2 || f.Data[0] > byte(EncodingUTF8) {
		return "", false
	}

	enc := resolveEncoding(f.Data[0])
	return string(enc.toUTF8(f.Data[1:])), true
}

func (f UnsupportedFrame) Encode() []byte {
	return f.Data
}

// languageBytes normalizes a language code to exactly three bytes,
// defaulting to "eng".
func languageBytes(lang string) []byte {
	if len(lang) != 3 {
		return []byte("eng")
	}
	return []byte(lang)
}
