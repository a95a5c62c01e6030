package llm

import (
	"bytes"
	"io"
	"iter"
	"strings"
)

const readChunkSize = 4096

// LineDecoder reassembles arbitrarily chunked bytes into complete lines.
//
// Only the trailing partial line is kept between chunks. '\n' never occurs
// inside a multi-byte UTF-8 sequence, so a character split across chunk
// boundaries stays whole in the carry-over until its line completes.
type LineDecoder struct {
	carry []byte
}

// Feed consumes chunk and returns every line it completes, in order.
// Line terminators ("\n" or "\r\n") are not included.
func (d *LineDecoder) Feed(chunk []byte) []string {
	var lines []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			d.carry = append(d.carry, chunk...)
			break
		}
		var line []byte
		if len(d.carry) > 0 {
			line = append(d.carry, chunk[:i]...)
			d.carry = d.carry[:0]
		} else {
			line = chunk[:i]
		}
		lines = append(lines, decodeLine(line))
		chunk = chunk[i+1:]
	}
	return lines
}

// Flush returns the remaining carry-over as a final line, if non-empty.
func (d *LineDecoder) Flush() (string, bool) {
	if len(d.carry) == 0 {
		return "", false
	}
	line := decodeLine(d.carry)
	d.carry = nil
	return line, true
}

func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	return strings.ToValidUTF8(string(b), "�")
}

// Lines returns a lazy, single-use sequence of the lines read from r.
//
// Read errors other than io.EOF are yielded once, after which the sequence
// ends. A non-empty trailing segment at EOF is yielded as a final line.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var dec LineDecoder
		buf := make([]byte, readChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				for _, line := range dec.Feed(buf[:n]) {
					if !yield(line, nil) {
						return
					}
				}
			}
			if err == io.EOF {
				if line, ok := dec.Flush(); ok {
					yield(line, nil)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}
