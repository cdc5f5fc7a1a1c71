// Package codec implements the compression and encryption half of the
// blob pipeline's codec chain.
package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"innerfs/internal/core"
)

// GzipFamily implements core.CompressorFamily for the gzip family, the only
// compression family InnerFS supports.
type GzipFamily struct{}

func (GzipFamily) Name() string { return "gzip" }

func (GzipFamily) New(level int) (core.Compressor, error) {
	if level < 1 || level > 9 {
		return nil, core.NewError(core.KindInvalidName, "gzip.new", "", fmt.Errorf("level %d out of range", level))
	}
	return &gzipCompressor{level: level}, nil
}

type gzipCompressor struct {
	level int
}

func (c *gzipCompressor) Descriptor() string { return "gzip:" + strconv.Itoa(c.level) }

func (c *gzipCompressor) Compress(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "gzip.compress", "", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, core.NewError(core.KindBackendIO, "gzip.compress", "", err)
	}
	if err := w.Close(); err != nil {
		return nil, core.NewError(core.KindBackendIO, "gzip.compress", "", err)
	}
	return buf.Bytes(), nil
}

// Decompress works regardless of the level the data was originally
// compressed at; gzip streams are self-describing.
func (c *gzipCompressor) Decompress(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, core.NewError(core.KindDecodeFailure, "gzip.decompress", "", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, core.NewError(core.KindDecodeFailure, "gzip.decompress", "", err)
	}
	return out, nil
}

// ParseDescriptor splits a "gzip:<level>" descriptor into family and level.
func ParseDescriptor(descriptor string) (family string, level int, err error) {
	if descriptor == "" {
		return "", 0, nil
	}
	parts := strings.SplitN(descriptor, ":", 2)
	if len(parts) != 2 {
		return "", 0, core.NewError(core.KindInvalidName, "codec.parseDescriptor", descriptor, nil)
	}
	level, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, core.NewError(core.KindInvalidName, "codec.parseDescriptor", descriptor, err)
	}
	return parts[0], level, nil
}

// NewCompressorForDescriptor builds the Compressor needed to decode a body
// compressed under the given descriptor. Only the gzip family exists today.
func NewCompressorForDescriptor(descriptor string) (core.Compressor, error) {
	family, level, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	if family == "" {
		return nil, nil
	}
	if family != "gzip" {
		return nil, core.NewError(core.KindIncompatibleConfig, "codec.newCompressorForDescriptor", descriptor, nil)
	}
	return GzipFamily{}.New(level)
}
