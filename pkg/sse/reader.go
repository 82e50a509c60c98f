package sse

import (
	"bufio"
	"io"
	"strings"
)

// Reader parses SSE events from a stream. When constructed with a raw
// writer, every line read is copied there verbatim as well, which is how
// "companion watch --raw" echoes the wire format.
type Reader struct {
	scanner *bufio.Scanner
	raw     io.Writer

	current *Event
	hasData bool
}

// NewReader returns a Reader over src. raw may be nil.
func NewReader(src io.Reader, raw io.Writer) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if raw == nil {
		raw = io.Discard
	}

	return &Reader{
		scanner: scanner,
		raw:     raw,
		current: &Event{},
	}
}

// Next blocks until a complete event is available. It returns nil, nil when
// the source is exhausted. A final event without a trailing blank line is
// still yielded.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if _, err := io.WriteString(r.raw, line+"\n"); err != nil {
			return nil, err
		}

		if line == "" {
			if !r.hasData {
				// keep-alive or leading blank line
				continue
			}
			ev := r.current
			r.reset()
			return ev, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if r.hasData {
		ev := r.current
		r.reset()
		return ev, nil
	}
	return nil, nil
}

// parseLine accumulates one "field:value" line. A single space after the
// colon is stripped; a line without a colon is a field with an empty value.
func (r *Reader) parseLine(line string) {
	field, value, ok := strings.Cut(line, ":")
	if ok {
		value = strings.TrimPrefix(value, " ")
	}

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	}
	// "retry" and unknown fields are ignored.
}

func (r *Reader) reset() {
	r.current = &Event{}
	r.hasData = false
}
