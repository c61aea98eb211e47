// File: stream/ndjson.go
//
// NDJSONDecoder reads one JSON value per line, for providers that
// stream newline-delimited JSON objects instead of SSE.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
)

var errNotJSONArray = errors.New("stream: expected a top-level JSON array")

// NDJSONDecoder reads one raw JSON message at a time from r.
type NDJSONDecoder struct {
	scanner *bufio.Scanner
}

// NewNDJSONDecoder wraps r, which must yield one JSON value per line.
func NewNDJSONDecoder(r io.Reader) *NDJSONDecoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &NDJSONDecoder{scanner: sc}
}

// Next decodes the next non-blank line into v. It returns ok=false at
// end of stream.
func (d *NDJSONDecoder) Next(v interface{}) (ok bool, err error) {
	for d.scanner.Scan() {
		line := d.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, v); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := d.scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// JSONArrayDecoder reads a single top-level JSON array one element at
// a time, for providers that buffer their whole response as one array
// rather than streaming newline-delimited objects.
type JSONArrayDecoder struct {
	dec    *json.Decoder
	opened bool
}

// NewJSONArrayDecoder wraps r, which must yield a single top-level
// JSON array.
func NewJSONArrayDecoder(r io.Reader) *JSONArrayDecoder {
	return &JSONArrayDecoder{dec: json.NewDecoder(r)}
}

// Next decodes the next array element into v. It returns ok=false once
// the array is exhausted.
func (d *JSONArrayDecoder) Next(v interface{}) (ok bool, err error) {
	if !d.opened {
		tok, err := d.dec.Token()
		if err != nil {
			return false, err
		}
		if delim, isDelim := tok.(json.Delim); !isDelim || delim != '[' {
			return false, errNotJSONArray
		}
		d.opened = true
	}
	if !d.dec.More() {
		// consume the closing ']' so callers can detect trailing garbage
		_, err := d.dec.Token()
		return false, err
	}
	if err := d.dec.Decode(v); err != nil {
		return false, err
	}
	return true, nil
}
