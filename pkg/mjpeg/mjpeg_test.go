package mjpeg

import (
	"bytes"
	"errors"
	"testing"
)

func TestChunkFraming(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}

	got, err := Chunk(jpeg)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	want := append([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"), jpeg...)
	want = append(want, "\r\n"...)

	if !bytes.Equal(got, want) {
		t.Errorf("Chunk bytes:\n got %q\nwant %q", got, want)
	}
}

func TestChunkEmpty(t *testing.T) {
	if _, err := Chunk(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Chunk(nil) error = %v, want ErrEmptyPayload", err)
	}
}

func TestChunkDoesNotAlias(t *testing.T) {
	jpeg := []byte{1, 2, 3}
	got, _ := Chunk(jpeg)
	jpeg[0] = 9

	if p, _ := Payload(got); p[0] != 1 {
		t.Error("Chunk shares memory with its input")
	}
}

func TestContentType(t *testing.T) {
	if ContentType != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("ContentType = %q", ContentType)
	}
}

func TestWriteChunk(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		if err := WriteChunk(&buf, []byte{byte(i + 1)}); err != nil {
			t.Fatalf("WriteChunk: %v", err)
		}
	}

	if n := bytes.Count(buf.Bytes(), []byte("--frame\r\n")); n != 3 {
		t.Errorf("boundary count = %d, want 3", n)
	}
	if err := WriteChunk(&buf, nil); err == nil {
		t.Error("WriteChunk with empty payload should fail")
	}
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name  string
		chunk []byte
		want  []byte
		ok    bool
	}{
		{"well formed", []byte(PartHeader + "abc" + PartTrailer), []byte("abc"), true},
		{"no trailer", []byte(PartHeader + "abc"), nil, false},
		{"wrong boundary", []byte("--other\r\nContent-Type: image/jpeg\r\n\r\nabc\r\n"), nil, false},
		{"empty payload", []byte(PartHeader + PartTrailer), nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Payload(tc.chunk)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("payload = %q, want %q", got, tc.want)
			}
		})
	}
}
