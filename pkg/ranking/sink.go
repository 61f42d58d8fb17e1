package ranking

import (
	"bufio"
	"io"
)

// Sink receives ranking entries. The engine serializes calls to Write, so
// implementations need no locking of their own. Entries arrive in no
// particular order.
type Sink interface {
	Write(e Entry) error
}

// LineSink writes entries in the line format to an io.Writer.
type LineSink struct {
	w *bufio.Writer
	c io.Closer
}

// NewLineSink wraps w. If w is also an io.Closer, Close closes it.
func NewLineSink(w io.Writer) *LineSink {
	s := &LineSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *LineSink) Write(e Entry) error {
	_, err := s.w.WriteString(e.Line())
	return err
}

// Close flushes buffered lines and closes the underlying writer.
func (s *LineSink) Close() error {
	err := s.w.Flush()
	if s.c != nil {
		if cerr := s.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// MultiSink fans every entry out to several sinks, stopping at the first error.
type MultiSink []Sink

func (m MultiSink) Write(e Entry) error {
	for _, s := range m {
		if err := s.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// Collector keeps entries in memory, keyed by character.
type Collector struct {
	Entries map[string]Entry
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{Entries: make(map[string]Entry)}
}

func (c *Collector) Write(e Entry) error {
	c.Entries[e.Character] = e
	return nil
}
