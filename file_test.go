package id3tag

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var audioStub = append([]byte{0xFF, 0xFB, 0x90, 0x00}, bytes.Repeat([]byte{0xAB}, 64)...)

func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.mp3")
	require.NoError(t, os.WriteFile(name, contents, 0644))
	return name
}

func TestOpenFileWithoutTag(t *testing.T) {
	name := writeTempFile(t, audioStub)

	f, err := Open(name)
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.HasTag())
	assert.Empty(t, f.Tag.Frames)
}

func TestSaveAddsPaddingAndKeepsAudio(t *testing.T) {
	name := writeTempFile(t, audioStub)

	f, err := Open(name)
	require.NoError(t, err)
	f.Tag.SetTitle("Song")
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	buf, err := os.ReadFile(name)
	require.NoError(t, err)

	tag, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "Song", tag.Title())

	// audio follows the declared tag region untouched
	region := tagHeaderSize + tag.Header.size
	assert.Equal(t, audioStub, buf[region:])
	assert.GreaterOrEqual(t, tag.Header.size, Padding)
}

func TestSaveInPlaceReusesReservedSpace(t *testing.T) {
	name := writeTempFile(t, audioStub)

	f, err := Open(name)
	require.NoError(t, err)
	f.Tag.SetTitle("Song")
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	stat, err := os.Stat(name)
	require.NoError(t, err)
	sizeAfterFirstSave := stat.Size()

	f, err = Open(name)
	require.NoError(t, err)
	assert.True(t, f.HasTag())
	f.Tag.SetTitle("A slightly longer title")
	f.Tag.SetArtist("Someone")
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	stat, err = os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, sizeAfterFirstSave, stat.Size(), "second save should reuse the reserved padding")

	buf, err := os.ReadFile(name)
	require.NoError(t, err)
	tag, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "A slightly longer title", tag.Title())
	assert.Equal(t, "Someone", tag.Artist())

	region := tagHeaderSize + tag.Header.size
	assert.Equal(t, audioStub, buf[region:])
}

func TestSaveRewritesWhenTagOutgrowsRegion(t *testing.T) {
	name := writeTempFile(t, audioStub)

	f, err := Open(name)
	require.NoError(t, err)
	f.Tag.SetTitle("Song")
	require.NoError(t, f.Save())

	// far larger than the reserved region
	f.Tag.SetPicture(Picture{Data: bytes.Repeat([]byte{0x11}, Padding*4)})
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	buf, err := os.ReadFile(name)
	require.NoError(t, err)
	tag, err := Decode(buf)
	require.NoError(t, err)

	pics := tag.Pictures()
	require.Len(t, pics, 1)
	assert.Len(t, pics[0].Data, Padding*4)

	region := tagHeaderSize + tag.Header.size
	assert.Equal(t, audioStub, buf[region:])
}
