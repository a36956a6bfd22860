package consumer

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/kvsmkv/fragment"
)

var (
	ErrNoSource        = errors.New("consumer: chunk source required")
	ErrMissingCallback = errors.New("consumer: all three callbacks required")
)

// Callbacks are the three entry points a session delivers into. All are
// invoked from the client's own goroutine, never concurrently. Exactly one
// of OnStreamReadComplete and OnStreamReadError fires per session, and no
// OnFragmentArrived follows it.
type Callbacks struct {
	// OnFragmentArrived receives each fragment in arrival order. The
	// pipeline does not read further stream bytes until it returns, so a
	// slow callback makes the consumer fall behind the live edge of the
	// stream. The fragment is read-only and must be copied from if kept
	// past the call.
	OnFragmentArrived func(streamName string, f *fragment.Fragment, receiveDuration time.Duration)
	// OnStreamReadComplete fires once on a clean end of stream, after the
	// final fragment, and once when a session is stopped by the caller.
	OnStreamReadComplete func(streamName string)
	// OnStreamReadError fires once on an unrecoverable read or parse
	// failure.
	OnStreamReadError func(streamName string, err error)
}

type ClientOptions struct {
	StreamName string
	Debug      bool
}

// Client runs one consuming session: a single goroutine reading the chunk
// source, assembling fragments and dispatching callbacks. Multiple clients
// over different sources are independent.
type Client struct {
	src     ChunkSource
	options ClientOptions
	cb      Callbacks
	session string

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New validates the source and callbacks and prepares a session.
func New(src ChunkSource, options ClientOptions, cb Callbacks) (*Client, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if cb.OnFragmentArrived == nil || cb.OnStreamReadComplete == nil || cb.OnStreamReadError == nil {
		return nil, ErrMissingCallback
	}
	return &Client{
		src:     src,
		options: options,
		cb:      cb,
		session: uuid.New().String(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// SessionID identifies this session in logs when several clients share a
// process.
func (c *Client) SessionID() string {
	return c.session
}

// Start launches the read loop. The caller's goroutine is never blocked by
// the stream; use Wait to join.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		go c.loop()
	})
}

// Stop requests the loop to exit before its next read. Idempotent and safe
// from any goroutine. A stopped session reports completion, not an error.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Wait blocks until the session's terminal callback has returned.
func (c *Client) Wait() {
	<-c.done
}

func (c *Client) stopped() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

func (c *Client) loop() {
	defer close(c.done)
	defer c.src.Close()

	asm := &fragment.Assembler{}
	begin := time.Now()

	for {
		if c.stopped() {
			if c.options.Debug {
				log.Println("kvsmkv: session", c.session, "stopped")
			}
			c.cb.OnStreamReadComplete(c.options.StreamName)
			return
		}

		chunk, err := c.src.ReadChunk()
		if err == io.EOF {
			final, ferr := asm.Close()
			if ferr != nil {
				c.cb.OnStreamReadError(c.options.StreamName, ferr)
				return
			}
			if final != nil && !c.deliver(final, &begin) {
				return
			}
			if c.options.Debug {
				log.Println("kvsmkv: session", c.session, "stream read complete")
			}
			c.cb.OnStreamReadComplete(c.options.StreamName)
			return
		}
		if err != nil {
			c.cb.OnStreamReadError(c.options.StreamName, err)
			return
		}

		frags, ferr := asm.Write(chunk)
		for _, f := range frags {
			if c.stopped() {
				c.cb.OnStreamReadComplete(c.options.StreamName)
				return
			}
			if !c.deliver(f, &begin) {
				return
			}
		}
		if ferr != nil {
			c.cb.OnStreamReadError(c.options.StreamName, ferr)
			return
		}
	}
}

// deliver decodes the fragment tree and invokes the arrival callback,
// blocking the loop until it returns. A tree that no longer decodes means
// the boundary scan confirmed broken structure; the session ends through
// the error callback and deliver reports false.
func (c *Client) deliver(f *fragment.Fragment, begin *time.Time) bool {
	if _, err := f.Elements(); err != nil {
		c.cb.OnStreamReadError(c.options.StreamName, err)
		return false
	}
	d := time.Since(*begin)
	if c.options.Debug {
		log.Println("kvsmkv: session", c.session, "fragment", f.Seq, len(f.Raw), "bytes in", d)
	}
	c.cb.OnFragmentArrived(c.options.StreamName, f, d)
	*begin = time.Now()
	return true
}
