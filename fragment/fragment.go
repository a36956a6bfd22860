// Package fragment reassembles discrete MKV fragments from a continuous
// EBML byte stream, the delivery granularity of a Kinesis Video Streams
// GetMedia response.
package fragment

import (
	"errors"

	"github.com/vidstream/kvsmkv/ebml"
)

var ErrNoSegment = errors.New("fragment: no segment element")

// Fragment is one delivered unit of the stream: an EBML header element and
// the Segment that follows it, with the exact raw bytes they occupied.
// Fragments are read-only once emitted.
type Fragment struct {
	// Seq is the monotonic arrival index, starting at 0.
	Seq uint64
	// Raw holds the fragment's bytes verbatim; written to disk as-is the
	// result is a standalone MKV file.
	Raw []byte

	roots []*ebml.Element
	err   error
}

// New wraps an already confirmed fragment byte range.
func New(seq uint64, raw []byte) *Fragment {
	return &Fragment{Seq: seq, Raw: raw}
}

// Elements returns the fragment's top-level element trees, decoding Raw on
// first use. Leaf payloads are views into Raw.
func (f *Fragment) Elements() ([]*ebml.Element, error) {
	if f.roots == nil && f.err == nil {
		f.roots, f.err = ebml.DecodeAll(f.Raw)
	}
	return f.roots, f.err
}

// Segment returns the fragment's Segment element.
func (f *Fragment) Segment() (*ebml.Element, error) {
	els, err := f.Elements()
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if el.ID == ebml.ElementSegment.ID {
			return el, nil
		}
	}
	return nil, ErrNoSegment
}
