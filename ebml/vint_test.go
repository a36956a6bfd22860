package ebml

import (
	"errors"
	"testing"
)

func TestSizeRoundTrip(t *testing.T) {
	values := []struct {
		v uint64
		n int
	}{
		{0, 1},
		{1, 1},
		{126, 1},
		{127, 2}, // collides with 1-byte unknown-size, widens
		{128, 2},
		{16382, 2},
		{16383, 3},
		{1<<21 - 2, 3},
		{1<<21 - 1, 4},
		{1<<28 - 2, 4},
		{1<<35 - 2, 5},
		{1<<42 - 2, 6},
		{1<<49 - 2, 7},
		{1<<56 - 2, 8},
	}
	for _, ex := range values {
		b := EncodeSize(ex.v)
		if len(b) != ex.n {
			t.Errorf("EncodeSize(%d): %d bytes, expected %d", ex.v, len(b), ex.n)
		}
		v, n, unknown, err := ReadSize(b, 0)
		if err != nil {
			t.Fatalf("ReadSize(EncodeSize(%d)): %v", ex.v, err)
		}
		if unknown {
			t.Errorf("ReadSize(EncodeSize(%d)): unexpected unknown-size", ex.v)
		}
		if v != ex.v || n != ex.n {
			t.Errorf("ReadSize(EncodeSize(%d)) = %d (%d bytes)", ex.v, v, n)
		}
	}
}

func TestEncodeSizeTooLarge(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("EncodeSize(1<<56-1): expected panic, got the unknown-size pattern")
		}
	}()
	EncodeSize(1<<56 - 1)
}

func TestReadSizeUnknown(t *testing.T) {
	for n := 1; n <= 8; n++ {
		b := EncodeUnknownSize(n)
		if len(b) != n {
			t.Fatalf("EncodeUnknownSize(%d): %d bytes", n, len(b))
		}
		_, got, unknown, err := ReadSize(b, 0)
		if err != nil {
			t.Fatalf("ReadSize unknown width %d: %v", n, err)
		}
		if !unknown || got != n {
			t.Errorf("ReadSize unknown width %d: unknown=%v n=%d", n, unknown, got)
		}
	}
}

func TestReadSizeNonMinimal(t *testing.T) {
	// 2-byte encoding of 1 must keep its value and its original width
	v, n, unknown, err := ReadSize([]byte{0x40, 0x01}, 0)
	if err != nil || unknown {
		t.Fatalf("ReadSize: %v unknown=%v", err, unknown)
	}
	if v != 1 || n != 2 {
		t.Errorf("ReadSize(40 01) = %d (%d bytes), expected 1 (2 bytes)", v, n)
	}
}

func TestReadIDWidths(t *testing.T) {
	values := []struct {
		id uint32
		n  int
	}{
		{ElementSimpleBlock.ID, 1},
		{ElementEBMLVersion.ID, 2},
		{ElementTimecodeScale.ID, 3},
		{ElementSegment.ID, 4},
	}
	for _, ex := range values {
		b := EncodeID(ex.id)
		if len(b) != ex.n {
			t.Errorf("EncodeID(%#x): %d bytes, expected %d", ex.id, len(b), ex.n)
		}
		id, n, err := ReadID(b, 0)
		if err != nil {
			t.Fatalf("ReadID(%#x): %v", ex.id, err)
		}
		if id != ex.id || n != ex.n {
			t.Errorf("ReadID(%#x) = %#x (%d bytes)", ex.id, id, n)
		}
	}
}

func TestReadIDInvalid(t *testing.T) {
	if _, _, err := ReadID([]byte{0x05}, 0); !errors.Is(err, ErrInvalidVint) {
		t.Errorf("ReadID(05) err = %v, expected ErrInvalidVint", err)
	}
}

func TestTruncated(t *testing.T) {
	segment := EncodeID(ElementSegment.ID)
	for cut := 0; cut < len(segment); cut++ {
		if _, _, err := ReadID(segment[:cut], 0); !errors.Is(err, ErrTruncated) {
			t.Errorf("ReadID cut at %d: err = %v, expected ErrTruncated", cut, err)
		}
	}
	size := EncodeSize(1 << 20)
	for cut := 0; cut < len(size); cut++ {
		if _, _, _, err := ReadSize(size[:cut], 0); !errors.Is(err, ErrTruncated) {
			t.Errorf("ReadSize cut at %d: err = %v, expected ErrTruncated", cut, err)
		}
	}
}

func TestReadVintTrackNumbers(t *testing.T) {
	values := []struct {
		b []byte
		v uint64
		n int
	}{
		{[]byte{0x81}, 1, 1},
		{[]byte{0xfe}, 126, 1},
		{[]byte{0x40, 0x81}, 129, 2},
		{[]byte{0x20, 0x12, 0x34}, 0x1234, 3},
	}
	for _, ex := range values {
		v, n, err := ReadVint(ex.b, 0)
		if err != nil {
			t.Fatalf("ReadVint(% x): %v", ex.b, err)
		}
		if v != ex.v || n != ex.n {
			t.Errorf("ReadVint(% x) = %d (%d bytes), expected %d (%d bytes)", ex.b, v, n, ex.v, ex.n)
		}
	}
}
