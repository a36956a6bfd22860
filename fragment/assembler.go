package fragment

import (
	"errors"
	"fmt"

	"github.com/vidstream/kvsmkv/ebml"
)

const (
	stateAwaitingHeader = iota
	stateAccumulatingBody
)

// A single element larger than this in a streamed fragment is garbage, not
// media.
const maxElementSize = 1 << 31

// Assembler turns an unframed stream of byte chunks into complete
// fragments. Chunk boundaries are arbitrary: the scan resumes from the
// last confirmed element header, and bytes are never consumed until the
// element they belong to is complete.
//
// Top-level scanning never descends into size-known elements; it tracks
// only the stack of open unknown-size masters, closing each when the next
// id at its level is not a valid child. A fragment is emitted when its
// Segment closes.
type Assembler struct {
	buf        []byte
	pos        int      // offset of the next unparsed element header
	open       []uint32 // unknown-size masters currently open, innermost last
	state      int
	seq        uint64
	sawSegment bool
}

// Write appends a chunk and returns the fragments it completed, in stream
// order. A non-nil error means the stream is structurally broken and the
// assembler must not be written to again.
func (a *Assembler) Write(chunk []byte) ([]*Fragment, error) {
	a.buf = append(a.buf, chunk...)
	return a.scan()
}

func (a *Assembler) scan() ([]*Fragment, error) {
	var done []*Fragment
	for a.pos < len(a.buf) {
		id, idw, err := ebml.ReadID(a.buf, a.pos)
		if errors.Is(err, ebml.ErrTruncated) {
			return done, nil
		}
		if err != nil {
			return done, fmt.Errorf("fragment: bad element id at offset %d: %w", a.pos, ebml.ErrMalformed)
		}

		// A header that cannot be a child closes open unknown-size
		// masters, innermost first.
		for len(a.open) > 0 && !ebml.ValidChild(a.open[len(a.open)-1], id) {
			a.open = a.open[:len(a.open)-1]
		}
		if len(a.open) == 0 && a.sawSegment {
			done = append(done, a.emit(a.pos))
			continue
		}

		size, sw, unknown, err := ebml.ReadSize(a.buf, a.pos+idw)
		if errors.Is(err, ebml.ErrTruncated) {
			return done, nil
		}
		if err != nil {
			return done, fmt.Errorf("fragment: bad size vint at offset %d: %w", a.pos+idw, ebml.ErrMalformed)
		}

		reg := ebml.GetElementRegister(id)
		if unknown {
			if reg.Type != ebml.TypeMaster {
				return done, fmt.Errorf("fragment: unknown-size %s leaf at offset %d: %w", reg.Name, a.pos, ebml.ErrMalformed)
			}
			if len(a.open) == 0 && id == ebml.ElementSegment.ID {
				a.sawSegment = true
			}
			a.open = append(a.open, id)
			a.pos += idw + sw
			a.state = stateAccumulatingBody
			continue
		}

		if size > maxElementSize {
			return done, fmt.Errorf("fragment: %s declares %d byte payload: %w", reg.Name, size, ebml.ErrMalformed)
		}
		// int64 end offset: int(size) would wrap on 32-bit platforms
		end := int64(a.pos) + int64(idw+sw) + int64(size)
		if end > int64(len(a.buf)) {
			return done, nil
		}
		atTop := len(a.open) == 0
		a.pos = int(end)
		a.state = stateAccumulatingBody
		if atTop && id == ebml.ElementSegment.ID {
			done = append(done, a.emit(a.pos))
		}
	}
	return done, nil
}

// Close signals end of stream. Any open unknown-size masters close at the
// final buffered byte and the last fragment, if one is pending, is
// returned. An empty buffer is a clean end; leftover bytes that never
// completed an element, or a fragment cut before its Segment, are a
// malformed stream.
func (a *Assembler) Close() (*Fragment, error) {
	if a.state == stateAwaitingHeader && len(a.buf) == 0 {
		return nil, nil
	}
	if a.pos < len(a.buf) {
		return nil, fmt.Errorf("fragment: stream ended with %d bytes of an incomplete element: %w", len(a.buf)-a.pos, ebml.ErrMalformed)
	}
	if !a.sawSegment {
		return nil, fmt.Errorf("fragment: stream ended before a segment completed: %w", ebml.ErrMalformed)
	}
	return a.emit(len(a.buf)), nil
}

// Buffered returns the byte count of the fragment under assembly.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

func (a *Assembler) emit(end int) *Fragment {
	raw := make([]byte, end)
	copy(raw, a.buf)
	n := copy(a.buf, a.buf[end:])
	a.buf = a.buf[:n]
	a.pos = 0
	a.open = a.open[:0]
	a.sawSegment = false
	a.state = stateAwaitingHeader
	f := New(a.seq, raw)
	a.seq++
	return f
}
