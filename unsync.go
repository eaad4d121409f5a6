package id3tag

// deunsynchronize reverses the unsynchronization escape scheme,
// collapsing every 0xFF 0x00 pair into a bare 0xFF. It always
// returns a fresh buffer; frame bodies are never rewritten in place.
//
// The inverse is deliberately not implemented: tags are always
// written with the unsynchronisation flag unset, but tags produced by
// other tools may still carry escaped frames on read.
func deunsynchronize(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}
