// File: stream/sse.go
//
// SSEDecoder splits a Server-Sent-Events byte stream into individual
// events. It reuses one bufio.Scanner buffer for the whole stream, but
// copies each line into a string and joins each event's data lines
// into a new string, so it allocates per line and per event.
package stream

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent is one decoded "event: .../data: ..." block.
type SSEEvent struct {
	Event string
	Data  string
}

// SSEDecoder reads one event at a time from an SSE body.
type SSEDecoder struct {
	scanner *bufio.Scanner
}

// NewSSEDecoder wraps r, which must yield CRLF- or LF-terminated SSE
// lines (a raw HTTP response body is fine).
func NewSSEDecoder(r io.Reader) *SSEDecoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &SSEDecoder{scanner: sc}
}

// Next returns the next event, or ok=false at end of stream.
func (d *SSEDecoder) Next() (ev SSEEvent, ok bool, err error) {
	var dataLines []string
	for d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")
		if line == "" {
			if len(dataLines) == 0 && ev.Event == "" {
				continue // blank lines between events
			}
			ev.Data = strings.Join(dataLines, "\n")
			return ev, true, nil
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// comment/heartbeat line, ignored
		}
	}
	if err := d.scanner.Err(); err != nil {
		return SSEEvent{}, false, err
	}
	if len(dataLines) > 0 || ev.Event != "" {
		ev.Data = strings.Join(dataLines, "\n")
		return ev, true, nil
	}
	return SSEEvent{}, false, nil
}
