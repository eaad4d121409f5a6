package id3tag

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// Enables logging if set to true.
var Logging LogFlag

type LogFlag bool

func (l LogFlag) Println(args ...interface{}) {
	if l {
		log.Println(args...)
	}
}

const (
	tagHeaderSize = 10

	// frameHeaderSize is the v2.3/v2.4 frame header width: 4 byte
	// identifier, 4 byte size, 2 flag bytes. v2.2 frames use a 6 byte
	// header with 3 byte identifiers and sizes.
	frameHeaderSize   = 10
	frameHeaderSizeV2 = 6

	// signatureWindow is how far into a buffer the "ID3" signature may
	// appear for the buffer to be recognized as tagged. Some files
	// carry junk bytes before the tag.
	signatureWindow = 20
)

var (
	id3byte     = []byte("ID3")
	versionByte = []byte{4, 0}
	nul         = []byte{0}
	utf8byte    = []byte{byte(EncodingUTF8)}
)

type HeaderFlags byte
type FrameFlags uint16
type Version int16
type FrameType string
type FramesMap map[FrameType][]Frame
type PictureType byte

const (
	ID3v22 Version = 0x0200
	ID3v23 Version = 0x0300
	ID3v24 Version = 0x0400
)

const TimeFormat = "2006-01-02T15:04:05"

var timeFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
	"2006-01",
	"2006",
}

type notATagHeader struct {
	Magic []byte
}

type UnsupportedVersion struct {
	Version Version
}

type InvalidTagSize struct {
	Bytes [4]byte
}

func (err notATagHeader) Error() string {
	return fmt.Sprintf("Not an ID3v2 header: %q", err.Magic)
}

func (err UnsupportedVersion) Error() string {
	return fmt.Sprintf("Unsupported version: %s", err.Version)
}

func (err InvalidTagSize) Error() string {
	return fmt.Sprintf("Invalid tag size %v: high bit set", err.Bytes)
}

type TagHeader struct {
	Version Version // The ID3v2 version the tag had when read
	Flags   HeaderFlags
	size    int // The size of the tag (excluding the size of the header)
}

type Tag struct {
	Header TagHeader
	Frames FramesMap
}

// NewTag returns an empty tag.
func NewTag() *Tag {
	return &Tag{Frames: make(FramesMap)}
}

func (f FrameType) String() string {
	v, ok := FrameNames[f]
	if ok {
		return v
	}

	return string(f)
}

func (p PictureType) String() string {
	if int(p) >= len(PictureTypes) {
		return ""
	}

	return PictureTypes[p]
}

func (f HeaderFlags) Unsynchronisation() bool {
	return (f & 128) > 0
}

func (f HeaderFlags) ExtendedHeader() bool {
	return (f & 64) > 0
}

func (f HeaderFlags) Experimental() bool {
	return (f & 32) > 0
}

func (f FrameFlags) Unsynchronised() bool {
	return (f & 0x0002) > 0
}

func (f FrameFlags) DataLengthIndicator() bool {
	return (f & 0x0001) > 0
}

func (f FrameFlags) Compressed() bool {
	return (f & 0x0008) > 0
}

func (f FrameFlags) Encrypted() bool {
	return (f & 0x0004) > 0
}

func (v Version) String() string {
	return fmt.Sprintf("ID3v2.%.1d.%.1d", v>>8, v&0xFF)
}

// decodeSize decodes a synchsafe size field: four 7 bit groups, most
// significant first. The high bit of every input byte is expected to
// be clear; callers validate that before calling.
func decodeSize(b [4]byte) uint32 {
	return uint32(b[0])<<21 | uint32(b[1])<<14 | uint32(b[2])<<7 | uint32(b[3])
}

// encodeSize encodes n as a synchsafe size field. n must fit in 28
// bits; the high bit of every output byte is guaranteed clear.
func encodeSize(n uint32) [4]byte {
	return [4]byte{
		byte(n >> 21 & 0x7f),
		byte(n >> 14 & 0x7f),
		byte(n >> 7 & 0x7f),
		byte(n & 0x7f),
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint32Bytes(n uint32) []byte {
	return []byte{
		byte(n >> 24),
		byte(n >> 16),
		byte(n >> 8),
		byte(n),
	}
}

func concat(bs ...[]byte) []byte {
	n := 0
	for _, b := range bs {
		n += len(b)
	}
	out := make([]byte, 0, n)
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}

// v23Separators lists the extra value separators some v2.3 writers
// used instead of null bytes. They are applied as a secondary split
// after the null byte split when reading v2.3 tags.
var v23Separators = map[FrameType]string{
	"TPE1": " / ",
	"TCOM": " / ",
	"TPE3": " / ",
	"TCON": ";",
}

// legacyDateFrames are frames that older tags used where v2.4 has
// TDRC. A tag carrying only one of these still exposes its value
// under the "date" alias.
var legacyDateFrames = []FrameType{"TYER", "TIME", "TRDA"}

// Clear removes all frames from the tag.
func (t *Tag) Clear() {
	t.Frames = make(FramesMap)
}

func (t *Tag) RemoveFrames(name FrameType) {
	delete(t.Frames, name)
}

func (t *Tag) HasFrame(name FrameType) bool {
	_, ok := t.Frames[name]
	return ok
}

func (t *Tag) addFrame(f Frame) {
	t.Frames[f.ID()] = append(t.Frames[f.ID()], f)
}

// GetTextFrame returns the text frame specified by name.
//
// To access user text frames, specify the name like "TXXX:The
// description".
func (t *Tag) GetTextFrame(name FrameType) string {
	userFrameName, ok := frameNameToUserFrame(name)
	if ok {
		return t.getUserTextFrame(userFrameName)
	}

	frames := t.Frames[name]
	if len(frames) == 0 {
		return ""
	}

	return frames[0].Value()
}

func (t *Tag) getUserTextFrame(name string) string {
	frames, ok := t.Frames["TXXX"]
	if !ok {
		return ""
	}

	for _, frame := range frames {
		userFrame := frame.(UserDefinedFrame)
		if userFrame.Description == name {
			return strings.Join(userFrame.Values, "\x00")
		}
	}

	return ""
}

func (t *Tag) GetTextFrameNumber(name FrameType) int {
	s := t.GetTextFrame(name)
	if s == "" {
		return 0
	}

	i, _ := strconv.Atoi(s)
	return i
}

func (t *Tag) GetTextFrameSlice(name FrameType) []string {
	frames := t.Frames[name]
	if len(frames) == 0 {
		return nil
	}

	if f, ok := frames[0].(TextInformationFrame); ok {
		return f.Values
	}

	s := frames[0].Value()
	if s == "" {
		return nil
	}

	return strings.Split(s, "\x00")
}

func (t *Tag) GetTextFrameTime(name FrameType) time.Time {
	s := t.GetTextFrame(name)
	if s == "" {
		return time.Time{}
	}

	ft, err := parseTime(s)
	if err != nil {
		return time.Time{}
	}

	return ft
}

func (t *Tag) SetTextFrame(name FrameType, value string) {
	userFrameName, ok := frameNameToUserFrame(name)
	if ok {
		t.setUserTextFrame(userFrameName, value)
		return
	}

	t.Frames[name] = []Frame{TextInformationFrame{
		FrameHeader: FrameHeader{id: name},
		Values:      []string{value},
	}}
}

func (t *Tag) SetTextFrameSlice(name FrameType, values []string) {
	userFrameName, ok := frameNameToUserFrame(name)
	if ok {
		t.Frames["TXXX"] = append(t.Frames["TXXX"], UserDefinedFrame{
			FrameHeader: FrameHeader{id: "TXXX"},
			Description: userFrameName,
			Values:      values,
		})
		return
	}

	t.Frames[name] = []Frame{TextInformationFrame{
		FrameHeader: FrameHeader{id: name},
		Values:      values,
	}}
}

func (t *Tag) setUserTextFrame(name string, value string) {
	frame := UserDefinedFrame{
		FrameHeader: FrameHeader{id: "TXXX"},
		Description: name,
		Values:      []string{value},
	}

	frames := t.Frames["TXXX"]
	for i := range frames {
		if frames[i].(UserDefinedFrame).Description == name {
			frames[i] = frame
			return
		}
	}

	t.Frames["TXXX"] = append(frames, frame)
}

func (t *Tag) SetTextFrameNumber(name FrameType, value int) {
	t.SetTextFrame(name, strconv.Itoa(value))
}

func (t *Tag) SetTextFrameTime(name FrameType, value time.Time) {
	t.SetTextFrame(name, value.Format(TimeFormat))
}

func (t *Tag) Album() string {
	return t.GetTextFrame("TALB")
}

func (t *Tag) SetAlbum(album string) {
	t.SetTextFrame("TALB", album)
}

func (t *Tag) Artists() []string {
	return t.GetTextFrameSlice("TPE1")
}

func (t *Tag) SetArtists(artists []string) {
	t.SetTextFrameSlice("TPE1", artists)
}

func (t *Tag) Artist() string {
	artists := t.Artists()
	if len(artists) > 0 {
		return artists[0]
	}

	return ""
}

func (t *Tag) SetArtist(artist string) {
	t.SetTextFrame("TPE1", artist)
}

func (t *Tag) Title() string {
	return t.GetTextFrame("TIT2")
}

func (t *Tag) SetTitle(title string) {
	t.SetTextFrame("TIT2", title)
}

func (t *Tag) Composers() []string {
	return t.GetTextFrameSlice("TCOM")
}

func (t *Tag) SetComposers(composers []string) {
	t.SetTextFrameSlice("TCOM", composers)
}

func (t *Tag) Genre() string {
	return t.GetTextFrame("TCON")
}

func (t *Tag) SetGenre(genre string) {
	t.SetTextFrame("TCON", genre)
}

func (t *Tag) Length() time.Duration {
	return time.Duration(t.GetTextFrameNumber("TLEN")) * time.Millisecond
}

func (t *Tag) SetLength(d time.Duration) {
	t.SetTextFrameNumber("TLEN", int(d.Nanoseconds()/1e6))
}

func (t *Tag) RecordingTime() time.Time {
	return t.GetTextFrameTime("TDRC")
}

func (t *Tag) SetRecordingTime(rt time.Time) {
	t.SetTextFrameTime("TDRC", rt)
}

func (t *Tag) Comments() []Comment {
	frames := t.Frames["COMM"]
	comments := make([]Comment, len(frames))

	for i, frame := range frames {
		comment := frame.(CommentFrame)
		comments[i] = Comment{
			Language:    comment.Language,
			Description: comment.Description,
			Text:        comment.Text,
		}
	}

	return comments
}

func (t *Tag) SetComments(comments []Comment) {
	frames := make([]Frame, len(comments))
	for i, comment := range comments {
		frames[i] = CommentFrame{
			FrameHeader: FrameHeader{id: "COMM"},
			Language:    comment.Language,
			Description: comment.Description,
			Text:        comment.Text,
		}
	}
	t.Frames["COMM"] = frames
}

func (t *Tag) Lyrics() []Lyrics {
	frames := t.Frames["USLT"]
	lyrics := make([]Lyrics, len(frames))

	for i, frame := range frames {
		f := frame.(UnsynchronisedLyricsFrame)
		lyrics[i] = Lyrics{
			Language:    f.Language,
			Description: f.Description,
			Text:        f.Text,
		}
	}

	return lyrics
}

func (t *Tag) SetLyrics(lyrics []Lyrics) {
	frames := make([]Frame, len(lyrics))
	for i, l := range lyrics {
		frames[i] = UnsynchronisedLyricsFrame{
			FrameHeader: FrameHeader{id: "USLT"},
			Language:    l.Language,
			Description: l.Description,
			Text:        l.Text,
		}
	}
	t.Frames["USLT"] = frames
}

func (t *Tag) Pictures() []Picture {
	frames := t.Frames["APIC"]
	pictures := make([]Picture, len(frames))

	for i, frame := range frames {
		f := frame.(PictureFrame)
		pictures[i] = Picture{
			MIMEType:    f.MIMEType,
			Type:        f.PictureType,
			Description: f.Description,
			Data:        f.Data,
		}
	}

	return pictures
}

func (t *Tag) SetPicture(p Picture) {
	t.Frames["APIC"] = []Frame{PictureFrame{
		FrameHeader: FrameHeader{id: "APIC"},
		MIMEType:    p.MIMEType,
		PictureType: p.Type,
		Description: p.Description,
		Data:        p.Data,
	}}
}

func (t *Tag) Popularimeter() (Popularimeter, bool) {
	frames := t.Frames["POPM"]
	if len(frames) == 0 {
		return Popularimeter{}, false
	}

	f := frames[0].(PopularimeterFrame)
	return Popularimeter{
		Email:   f.Email,
		Rating:  f.Rating,
		Counter: f.Counter,
	}, true
}

func (t *Tag) SetPopularimeter(p Popularimeter) {
	t.Frames["POPM"] = []Frame{PopularimeterFrame{
		FrameHeader: FrameHeader{id: "POPM"},
		Email:       p.Email,
		Rating:      p.Rating,
		Counter:     p.Counter,
	}}
}

func (t *Tag) Chapters() []Chapter {
	frames := t.Frames["CHAP"]
	chapters := make([]Chapter, len(frames))

	for i, frame := range frames {
		f := frame.(ChapterFrame)
		chapters[i] = Chapter{
			ElementID:   f.ElementID,
			StartTime:   f.StartTime,
			EndTime:     f.EndTime,
			StartOffset: f.StartOffset,
			EndOffset:   f.EndOffset,
			SubTag:      f.SubTag,
		}
	}

	return chapters
}

func (t *Tag) SetChapters(chapters []Chapter) {
	frames := make([]Frame, len(chapters))
	for i, c := range chapters {
		frames[i] = ChapterFrame{
			FrameHeader: FrameHeader{id: "CHAP"},
			ElementID:   c.ElementID,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
			SubTag:      c.SubTag,
		}
	}
	t.Frames["CHAP"] = frames
}

// UserDefined returns the descriptions and values of all TXXX frames.
// Multiple frames sharing a description are merged into one
// multi-value entry, preserving order.
func (t *Tag) UserDefined() map[string][]string {
	out := make(map[string][]string)
	for _, frame := range t.Frames["TXXX"] {
		f := frame.(UserDefinedFrame)
		out[f.Description] = append(out[f.Description], f.Values...)
	}

	return out
}

// Raw returns a view of the tag keyed by frame identifier. Text
// frames with a single value collapse to a string, multi-value text
// frames become a []string, special frames map to their model types
// (Comment, Picture, Popularimeter, []Chapter; a single comment,
// lyric or picture collapses like a single text value) and TXXX
// frames merge
// into a map from description to value(s). Unknown frames are
// included only if their body decodes as text.
func (t *Tag) Raw() map[string]interface{} {
	out := make(map[string]interface{})

	for id, frames := range t.Frames {
		if len(frames) == 0 {
			continue
		}

		switch id {
		case "TXXX":
			merged := make(map[string]interface{})
			for descr, values := range t.UserDefined() {
				merged[descr] = collapse(values)
			}
			out[string(id)] = merged
		case "COMM":
			comments := t.Comments()
			if len(comments) == 1 {
				out[string(id)] = comments[0]
			} else {
				out[string(id)] = comments
			}
		case "USLT":
			lyrics := t.Lyrics()
			if len(lyrics) == 1 {
				out[string(id)] = lyrics[0]
			} else {
				out[string(id)] = lyrics
			}
		case "APIC":
			pictures := t.Pictures()
			if len(pictures) == 1 {
				out[string(id)] = pictures[0]
			} else {
				out[string(id)] = pictures
			}
		case "POPM":
			p, _ := t.Popularimeter()
			out[string(id)] = p
		case "CHAP":
			out[string(id)] = t.Chapters()
		default:
			switch f := frames[0].(type) {
			case TextInformationFrame:
				out[string(id)] = collapse(f.Values)
			case UnsupportedFrame:
				if s, ok := f.text(); ok {
					out[string(id)] = s
				}
			}
		}
	}

	return out
}

// Fields returns the same view as Raw, keyed by field alias instead
// of frame identifier. Frames without an alias are omitted. Tags that
// carry a date only under one of the legacy frames (TYER, TIME, TRDA)
// expose that value under the "date" alias as well.
func (t *Tag) Fields() map[string]interface{} {
	raw := t.Raw()
	out := make(map[string]interface{}, len(raw))

	for id, value := range raw {
		if alias, ok := FrameToAlias(FrameType(id)); ok {
			out[alias] = value
		}
	}

	if _, ok := out["date"]; !ok {
		for _, id := range legacyDateFrames {
			if v, ok := raw[string(id)]; ok {
				out["date"] = v
				break
			}
		}
	}

	return out
}

func collapse(values []string) interface{} {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

func parseTime(input string) (res time.Time, err error) {
	for _, format := range timeFormats {
		res, err = time.Parse(format, input)
		if err == nil {
			break
		}
	}

	return
}

func frameNameToUserFrame(name FrameType) (frameName string, ok bool) {
	if len(name) < 6 {
		return "", false
	}

	if name[0:4] != "TXXX" {
		return "", false
	}

	return string(name[5:]), true
}
