// Package mjpeg frames JPEG images as parts of a multipart/x-mixed-replace
// stream, the format browsers render as live video in an <img> element.
package mjpeg

import (
	"errors"
	"io"
)

// Boundary is the multipart boundary token used on every part.
const Boundary = "frame"

// ContentType is the response MIME type announcing the boundary.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// PartHeader precedes each JPEG payload.
const PartHeader = "--" + Boundary + "\r\n" +
	"Content-Type: image/jpeg\r\n" +
	"\r\n"

// PartTrailer follows each JPEG payload.
const PartTrailer = "\r\n"

// ErrEmptyPayload is returned when asked to frame zero bytes.
var ErrEmptyPayload = errors.New("mjpeg: empty jpeg payload")

// Chunk returns a single framed part: boundary, content type, blank line,
// the JPEG bytes and a trailing line break.
func Chunk(jpeg []byte) ([]byte, error) {
	if len(jpeg) == 0 {
		return nil, ErrEmptyPayload
	}
	out := make([]byte, 0, len(PartHeader)+len(jpeg)+len(PartTrailer))
	out = append(out, PartHeader...)
	out = append(out, jpeg...)
	out = append(out, PartTrailer...)
	return out, nil
}

// WriteChunk frames jpeg and writes it to w in one call.
func WriteChunk(w io.Writer, jpeg []byte) error {
	chunk, err := Chunk(jpeg)
	if err != nil {
		return err
	}
	_, err = w.Write(chunk)
	return err
}

// Payload extracts the JPEG bytes from a chunk produced by Chunk.
// It reports false if chunk is not framed as expected.
func Payload(chunk []byte) ([]byte, bool) {
	if len(chunk) < len(PartHeader)+len(PartTrailer)+1 {
		return nil, false
	}
	if string(chunk[:len(PartHeader)]) != PartHeader {
		return nil, false
	}
	end := len(chunk) - len(PartTrailer)
	if string(chunk[end:]) != PartTrailer {
		return nil, false
	}
	return chunk[len(PartHeader):end], true
}
