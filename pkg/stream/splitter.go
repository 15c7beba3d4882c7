package stream

import "bytes"

// Splitter cuts an arbitrarily chunked byte stream into complete lines.
// The fragment after the last newline is carried over into the next Feed, so
// the lines produced never depend on where the transport split the stream.
//
// Splitting happens on raw bytes: '\n' never appears inside a multi-byte
// UTF-8 sequence, so a rune cut across two chunks is reassembled intact.
type Splitter struct {
	carry []byte
}

// Feed appends chunk to the carried fragment and returns every line that is
// now complete, without its newline. The returned slices are owned by the
// caller.
func (s *Splitter) Feed(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}

	s.carry = append(s.carry, chunk...)

	var lines [][]byte
	for {
		idx := bytes.IndexByte(s.carry, '\n')
		if idx < 0 {
			break
		}

		line := make([]byte, idx)
		copy(line, s.carry[:idx])
		lines = append(lines, line)

		s.carry = s.carry[idx+1:]
	}

	// Compact so the backing array does not grow without bound over a long
	// stream.
	if len(s.carry) == 0 {
		s.carry = nil
	} else if cap(s.carry) > 4*len(s.carry)+4096 {
		s.carry = append([]byte(nil), s.carry...)
	}

	return lines
}

// Flush returns the unterminated trailing fragment, if any, and resets the
// splitter.
func (s *Splitter) Flush() []byte {
	if len(s.carry) == 0 {
		return nil
	}

	rest := s.carry
	s.carry = nil
	return rest
}

// Pending reports how many bytes are buffered awaiting a newline.
func (s *Splitter) Pending() int {
	return len(s.carry)
}
