package consumer

import (
	"io"
	"sync"

	"github.com/pion/webrtc/v3"
)

// DataChannelSource adapts a WebRTC data channel carrying stream bytes
// into a ChunkSource. Binary messages become chunks; channel close is a
// clean end of stream.
type DataChannelSource struct {
	dc     *webrtc.DataChannel
	chunks chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewDataChannelSource(dc *webrtc.DataChannel) *DataChannelSource {
	s := &DataChannelSource{
		dc:     dc,
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if msg.IsString || len(msg.Data) == 0 {
			return
		}
		chunk := make([]byte, len(msg.Data))
		copy(chunk, msg.Data)
		select {
		case s.chunks <- chunk:
		case <-s.done:
		}
	})
	dc.OnClose(func() {
		s.once.Do(func() { close(s.done) })
	})
	return s
}

func (s *DataChannelSource) ReadChunk() ([]byte, error) {
	select {
	case chunk := <-s.chunks:
		return chunk, nil
	case <-s.done:
		// drain chunks delivered before the close
		select {
		case chunk := <-s.chunks:
			return chunk, nil
		default:
			return nil, io.EOF
		}
	}
}

func (s *DataChannelSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.dc.Close()
}
