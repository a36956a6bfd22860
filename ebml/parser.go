package ebml

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrMalformed marks input whose declared structure is impossible:
// unknown-size leaves, or sizes that overrun a definitively closed range.
var ErrMalformed = errors.New("ebml: malformed stream")

// Element is a decoded Matroska/WebM/EBML element. Leaf payloads are views
// into the buffer the element was decoded from, never copies.
type Element struct {
	ElementRegister

	Offset      int64 // payload start within the decoded buffer
	Size        uint64
	HeaderSize  int
	UnknownSize bool
	Children    []*Element // master elements only
	Content     []byte     // leaf elements only
}

// DecodeElement decodes one element starting at pos, reading no bytes at or
// past limit. It returns the element and the total bytes consumed.
// ErrTruncated means the element's header or declared payload crosses
// limit. An unknown-size master closes at the first position where the next
// id is not a valid child, or at limit; limit is treated as the definitive
// end of input.
func DecodeElement(buf []byte, pos, limit int) (*Element, int, error) {
	if limit > len(buf) {
		limit = len(buf)
	}
	b := buf[:limit]

	id, idw, err := ReadID(b, pos)
	if err != nil {
		return nil, 0, err
	}
	size, sw, unknown, err := ReadSize(b, pos+idw)
	if err != nil {
		return nil, 0, err
	}

	el := &Element{
		ElementRegister: GetElementRegister(id),
		Offset:          int64(pos + idw + sw),
		Size:            size,
		HeaderSize:      idw + sw,
		UnknownSize:     unknown,
	}
	start := pos + idw + sw

	if el.Type != TypeMaster {
		if unknown {
			return nil, 0, ErrMalformed
		}
		if size > uint64(limit-start) {
			return nil, 0, ErrTruncated
		}
		el.Content = buf[start : start+int(size)]
		return el, idw + sw + int(size), nil
	}

	end := limit
	if !unknown {
		if size > uint64(limit-start) {
			return nil, 0, ErrTruncated
		}
		end = start + int(size)
	}

	cur := start
	for cur < end {
		if unknown {
			cid, _, err := ReadID(buf[:end], cur)
			if err != nil {
				if errors.Is(err, ErrTruncated) {
					break
				}
				return nil, 0, err
			}
			if !ValidChild(el.ID, cid) {
				break
			}
		}
		child, n, err := DecodeElement(buf, cur, end)
		if err != nil {
			return nil, 0, err
		}
		el.Children = append(el.Children, child)
		cur += n
	}
	if unknown {
		el.Size = uint64(cur - start)
	}
	return el, idw + sw + (cur - start), nil
}

// DecodeAll decodes the sequence of top-level elements covering buf.
func DecodeAll(buf []byte) ([]*Element, error) {
	var els []*Element
	pos := 0
	for pos < len(buf) {
		el, n, err := DecodeElement(buf, pos, len(buf))
		if err != nil {
			return nil, err
		}
		els = append(els, el)
		pos += n
	}
	return els, nil
}

// Find returns the first direct child with the given id, or nil.
func (el *Element) Find(id uint32) *Element {
	for _, c := range el.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FindAll returns all direct children with the given id in document order.
func (el *Element) FindAll(id uint32) []*Element {
	var out []*Element
	for _, c := range el.Children {
		if c.ID == id {
			out = append(out, c)
		}
	}
	return out
}

// Uint returns the payload as a big-endian unsigned integer.
func (el *Element) Uint() uint64 {
	return pack(el.Content)
}

// Int returns the payload as a big-endian signed integer.
func (el *Element) Int() int64 {
	if len(el.Content) == 0 {
		return 0
	}
	v := int64(pack(el.Content))
	shift := uint(64 - 8*len(el.Content))
	return v << shift >> shift
}

// Float returns the payload as a 32 or 64 bit big-endian float.
func (el *Element) Float() float64 {
	switch len(el.Content) {
	case 4:
		return float64(math.Float32frombits(uint32(pack(el.Content))))
	case 8:
		return math.Float64frombits(pack(el.Content))
	default:
		return 0
	}
}

// Text returns the payload as a string with trailing padding removed.
func (el *Element) Text() string {
	return strings.TrimRight(string(el.Content), "\x00")
}

// Date returns the payload as a timestamp. EBML dates are signed
// nanoseconds relative to 2001-01-01T00:00:00 UTC.
func (el *Element) Date() time.Time {
	epoch := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return epoch.Add(time.Duration(el.Int()))
}
