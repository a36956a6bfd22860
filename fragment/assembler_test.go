package fragment

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vidstream/kvsmkv/ebml"
)

func leaf(id uint32, payload []byte) []byte {
	b := append([]byte{}, ebml.EncodeID(id)...)
	b = append(b, ebml.EncodeSize(uint64(len(payload)))...)
	return append(b, payload...)
}

func master(id uint32, kids ...[]byte) []byte {
	return leaf(id, bytes.Join(kids, nil))
}

func unknownMaster(id uint32, kids ...[]byte) []byte {
	b := append([]byte{}, ebml.EncodeID(id)...)
	b = append(b, ebml.EncodeUnknownSize(8)...)
	return append(b, bytes.Join(kids, nil)...)
}

func uintLeaf(id uint32, v uint64) []byte {
	payload := []byte{byte(v)}
	for v >>= 8; v != 0; v >>= 8 {
		payload = append([]byte{byte(v)}, payload...)
	}
	return leaf(id, payload)
}

func header() []byte {
	return master(ebml.ElementEBML.ID,
		uintLeaf(ebml.ElementEBMLVersion.ID, 1),
		leaf(ebml.ElementDocType.ID, []byte("matroska")),
	)
}

func body(timecode uint64) []byte {
	return bytes.Join([][]byte{
		master(ebml.ElementTracks.ID,
			master(ebml.ElementTrackEntry.ID,
				uintLeaf(ebml.ElementTrackNumber.ID, 1),
				uintLeaf(ebml.ElementTrackType.ID, 2),
			),
		),
		master(ebml.ElementCluster.ID,
			uintLeaf(ebml.ElementTimecode.ID, timecode),
			leaf(ebml.ElementSimpleBlock.ID, []byte{0x81, 0, 0, 0x80, 1, 2, 3}),
		),
	}, nil)
}

// streamingFragment mimics a GetMedia fragment: EBML header followed by an
// unknown-size Segment.
func streamingFragment(timecode uint64) []byte {
	return append(header(), unknownMaster(ebml.ElementSegment.ID, body(timecode))...)
}

// sizedFragment carries a Segment with a declared size.
func sizedFragment(timecode uint64) []byte {
	return append(header(), master(ebml.ElementSegment.ID, body(timecode))...)
}

func collect(t *testing.T, stream []byte, chunkSize int) []*Fragment {
	t.Helper()
	asm := &Assembler{}
	var out []*Fragment
	for pos := 0; pos < len(stream); pos += chunkSize {
		end := pos + chunkSize
		if end > len(stream) {
			end = len(stream)
		}
		frags, err := asm.Write(stream[pos:end])
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		out = append(out, frags...)
	}
	final, err := asm.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if final != nil {
		out = append(out, final)
	}
	return out
}

func TestTwoStreamingFragments(t *testing.T) {
	f1 := streamingFragment(0)
	f2 := streamingFragment(1000)
	stream := append(append([]byte{}, f1...), f2...)

	frags := collect(t, stream, len(stream))
	if len(frags) != 2 {
		t.Fatalf("fragments = %d, expected 2", len(frags))
	}
	if !bytes.Equal(frags[0].Raw, f1) {
		t.Error("fragment 0 bytes differ from source span")
	}
	if !bytes.Equal(frags[1].Raw, f2) {
		t.Error("fragment 1 bytes differ from source span")
	}
	if frags[0].Seq != 0 || frags[1].Seq != 1 {
		t.Errorf("sequence = %d, %d", frags[0].Seq, frags[1].Seq)
	}
	for _, f := range frags {
		if _, err := f.Segment(); err != nil {
			t.Errorf("fragment %d: %v", f.Seq, err)
		}
	}
}

func TestChunkGranularityDoesNotChangeOutcome(t *testing.T) {
	stream := append(streamingFragment(0), streamingFragment(1000)...)
	stream = append(stream, sizedFragment(2000)...)

	whole := collect(t, stream, len(stream))
	for _, chunkSize := range []int{1, 2, 7, 100} {
		chunked := collect(t, stream, chunkSize)
		if len(chunked) != len(whole) {
			t.Fatalf("chunk size %d: fragments = %d, expected %d", chunkSize, len(chunked), len(whole))
		}
		for i := range whole {
			if !bytes.Equal(chunked[i].Raw, whole[i].Raw) {
				t.Errorf("chunk size %d: fragment %d bytes differ", chunkSize, i)
			}
		}
	}
}

func TestSizedSegmentEmitsWithoutNextHeader(t *testing.T) {
	asm := &Assembler{}
	frags, err := asm.Write(sizedFragment(0))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("fragments = %d, expected 1 before end of stream", len(frags))
	}
	final, err := asm.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if final != nil {
		t.Error("unexpected fragment at clean close")
	}
}

func TestEndOfStreamClosesUnknownSegment(t *testing.T) {
	f1 := streamingFragment(0)
	asm := &Assembler{}
	frags, err := asm.Write(f1)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(frags) != 0 {
		t.Fatalf("fragments before close = %d, expected 0", len(frags))
	}
	final, err := asm.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if final == nil {
		t.Fatal("no fragment at end of stream")
	}
	if !bytes.Equal(final.Raw, f1) {
		t.Error("final fragment bytes differ from source")
	}
}

func TestMaxDeclaredSizeWaitsForBytes(t *testing.T) {
	b := append(ebml.EncodeID(ebml.ElementSegment.ID), ebml.EncodeSize(1<<31)...)
	asm := &Assembler{}
	frags, err := asm.Write(b)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(frags) != 0 {
		t.Fatalf("fragments = %d, expected 0 while the payload is outstanding", len(frags))
	}
	if asm.Buffered() != len(b) {
		t.Errorf("buffered = %d, expected %d", asm.Buffered(), len(b))
	}
}

func TestOversizedElementMalformed(t *testing.T) {
	b := append(ebml.EncodeID(ebml.ElementSegment.ID), ebml.EncodeSize(1<<31+1)...)
	asm := &Assembler{}
	if _, err := asm.Write(b); !errors.Is(err, ebml.ErrMalformed) {
		t.Errorf("Write err = %v, expected ErrMalformed", err)
	}
}

func TestCleanEmptyClose(t *testing.T) {
	asm := &Assembler{}
	final, err := asm.Close()
	if err != nil || final != nil {
		t.Errorf("Close on empty assembler = %v, %v", final, err)
	}
}

func TestTruncatedElementAtEndOfStream(t *testing.T) {
	f := sizedFragment(0)
	asm := &Assembler{}
	if _, err := asm.Write(f[:len(f)-4]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := asm.Close(); !errors.Is(err, ebml.ErrMalformed) {
		t.Errorf("Close err = %v, expected ErrMalformed", err)
	}
}

func TestHeaderOnlyStreamMalformed(t *testing.T) {
	asm := &Assembler{}
	if _, err := asm.Write(header()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := asm.Close(); !errors.Is(err, ebml.ErrMalformed) {
		t.Errorf("Close err = %v, expected ErrMalformed", err)
	}
}

func TestGarbageIDMalformed(t *testing.T) {
	asm := &Assembler{}
	if _, err := asm.Write([]byte{0x00, 0x01, 0x02}); !errors.Is(err, ebml.ErrMalformed) {
		t.Errorf("Write err = %v, expected ErrMalformed", err)
	}
}

func TestUnknownSizeLeafMalformed(t *testing.T) {
	b := append(ebml.EncodeID(ebml.ElementSimpleBlock.ID), ebml.EncodeUnknownSize(1)...)
	asm := &Assembler{}
	if _, err := asm.Write(b); !errors.Is(err, ebml.ErrMalformed) {
		t.Errorf("Write err = %v, expected ErrMalformed", err)
	}
}
