/*
Package id3tag reads and writes ID3v2 metadata tags.

Supported versions

This library supports reading v2.3 and v2.4 tags, but only writing
v2.4 tags.

The primary reason for not allowing writing older versions is that
they cannot represent all data that is available with v2.4, and
designing the API in a way that's both user friendly and able to
reject data is not worth the trouble.

Reading older tags

Tags are decoded from an in-memory buffer into a tag whose internal
representation matches v2.4. Peculiarities of v2.3 files are absorbed
during the read: multiple values joined by historic separators are
split into proper value lists, and dates stored under the legacy
TYER/TIME/TRDA frames surface under the "date" field alias.

Frame bodies that other tools wrote with the unsynchronisation escape
scheme are unescaped on read. The write path never applies the
escape; tags are always written with the unsynchronisation flag
unset.

Accessing and manipulating frames

There are three ways to access frames: Using provided getter and
setter methods (Title, SetArtists, Chapters, ...), through the Raw
and Fields views keyed by frame identifier and field alias
respectively, and working directly with the underlying frames.

Malformed input

Decoding never fails on malformed frame content. Truncated or
corrupt frames are dropped and everything parsed up to that point is
kept; only a missing signature, an unsupported version or an invalid
size field fail the read as a whole.
*/
package id3tag
