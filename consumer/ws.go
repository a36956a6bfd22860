package consumer

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// WSSource reads binary websocket messages as stream chunks, for relays
// that forward GetMedia bytes over a websocket.
type WSSource struct {
	conn net.Conn
}

// DialWS connects to a websocket relay and returns it as a chunk source.
func DialWS(ctx context.Context, url string) (*WSSource, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return &WSSource{conn: conn}, nil
}

// NewWSSource wraps an already established server-sent websocket
// connection.
func NewWSSource(conn net.Conn) *WSSource {
	return &WSSource{conn: conn}
}

func (s *WSSource) ReadChunk() ([]byte, error) {
	for {
		data, op, err := wsutil.ReadServerData(s.conn)
		if err != nil {
			var ce wsutil.ClosedError
			if errors.As(err, &ce) {
				if ce.Code == ws.StatusNormalClosure || ce.Code == ws.StatusGoingAway {
					return nil, io.EOF
				}
				return nil, err
			}
			return nil, err
		}
		if op == ws.OpBinary && len(data) > 0 {
			return data, nil
		}
	}
}

func (s *WSSource) Close() error {
	return s.conn.Close()
}
