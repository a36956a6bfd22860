// Package consumer drives the read/assemble/dispatch loop that turns a
// byte-chunk source into fragment arrival callbacks.
package consumer

import (
	"io"
)

// ChunkSource yields ordered byte chunks of a media stream. ReadChunk
// blocks until at least one byte is available and returns io.EOF after the
// final chunk on a clean end of stream; any other error is a read failure.
type ChunkSource interface {
	ReadChunk() ([]byte, error)
	Close() error
}

// ReaderSource adapts an io.Reader, such as the payload of a GetMedia
// response, into a ChunkSource.
type ReaderSource struct {
	r   io.Reader
	buf []byte
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, buf: make([]byte, 16384)}
}

func (s *ReaderSource) ReadChunk() ([]byte, error) {
	for {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, s.buf[:n])
			return chunk, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *ReaderSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
