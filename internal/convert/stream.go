package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrStreamClosed is returned when writing to a closed Stream.
var ErrStreamClosed = errors.New("stream is closed")

// Stream is an io.WriteCloser that collects encoded image bytes and runs
// one conversion when closed, writing the converted image to dst.
//
//	s := conv.NewStream(ctx, out, convert.Options{Width: 100, Format: "PNG"})
//	if _, err := io.Copy(s, in); err != nil { ... }
//	if err := s.Close(); err != nil { ... }
type Stream struct {
	conv *Converter
	ctx  context.Context
	dst  io.Writer
	opts Options

	buf    bytes.Buffer
	closed bool
	result *Result
}

// NewStream returns a Stream that converts with opts. opts.SrcData is
// ignored; the source is whatever is written to the stream.
func (c *Converter) NewStream(ctx context.Context, dst io.Writer, opts Options) *Stream {
	return &Stream{conv: c, ctx: ctx, dst: dst, opts: opts}
}

// Write buffers p as part of the source image.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrStreamClosed
	}
	return s.buf.Write(p)
}

// Close converts the buffered source and writes the result to dst. It is
// safe to call more than once; later calls return nil.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	opts := s.opts
	opts.SrcData = s.buf.Bytes()
	result, err := s.conv.Convert(s.ctx, opts)
	if err != nil {
		return err
	}
	s.result = result

	if _, err := s.dst.Write(result.Data); err != nil {
		return fmt.Errorf("failed to write converted image: %w", err)
	}
	return nil
}

// Result returns the conversion result after a successful Close, or nil.
func (s *Stream) Result() *Result {
	return s.result
}
