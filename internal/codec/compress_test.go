package codec

import (
	"bytes"
	"testing"
)

func TestGzipRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		level int
		data  []byte
	}{
		{"empty", 1, []byte{}},
		{"small", 6, []byte("hello world")},
		{"level9", 9, bytes.Repeat([]byte("innerfs"), 500)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gz, err := GzipFamily{}.New(c.level)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			compressed, err := gz.Compress(c.data)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			got, err := gz.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(got, c.data) {
				t.Fatalf("round trip mismatch: got %q want %q", got, c.data)
			}
			if gz.Descriptor() == "" {
				t.Fatal("expected non-empty descriptor")
			}
		})
	}
}

func TestGzipLevelOutOfRange(t *testing.T) {
	if _, err := (GzipFamily{}).New(0); err == nil {
		t.Fatal("expected error for level 0")
	}
	if _, err := (GzipFamily{}).New(10); err == nil {
		t.Fatal("expected error for level 10")
	}
}

func TestParseDescriptor(t *testing.T) {
	family, level, err := ParseDescriptor("gzip:6")
	if err != nil || family != "gzip" || level != 6 {
		t.Fatalf("got (%q, %d, %v)", family, level, err)
	}
	family, level, err = ParseDescriptor("")
	if err != nil || family != "" || level != 0 {
		t.Fatalf("empty descriptor should parse cleanly, got (%q, %d, %v)", family, level, err)
	}
	if _, _, err := ParseDescriptor("garbage"); err == nil {
		t.Fatal("expected error for malformed descriptor")
	}
}
