package types

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedTags is returned by DecodeTags for truncated or corrupt input.
var ErrMalformedTags = errors.New("malformed tags blob")

// maxTags bounds the count header so a corrupt blob cannot force a huge
// allocation.
const maxTags = 1 << 16

// EncodeTags serializes tags as a length-prefixed sequence: a little-endian
// int32 count followed by each string as a uvarint byte length and its UTF-8
// bytes.
func EncodeTags(tags []string) []byte {
	size := 4
	for _, tag := range tags {
		size += binary.MaxVarintLen32 + len(tag)
	}
	buf := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(buf, uint32(len(tags)))
	for _, tag := range tags {
		buf = binary.AppendUvarint(buf, uint64(len(tag)))
		buf = append(buf, tag...)
	}
	return buf
}

// DecodeTags parses a blob produced by EncodeTags. A nil or empty blob
// decodes to an empty, non-nil slice.
func DecodeTags(blob []byte) ([]string, error) {
	if len(blob) == 0 {
		return []string{}, nil
	}
	if len(blob) < 4 {
		return nil, fmt.Errorf("reading count: %w", ErrMalformedTags)
	}
	count := binary.LittleEndian.Uint32(blob)
	if count > maxTags {
		return nil, fmt.Errorf("count %d exceeds limit: %w", count, ErrMalformedTags)
	}
	rest := blob[4:]
	tags := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		n, width := binary.Uvarint(rest)
		if width <= 0 {
			return nil, fmt.Errorf("reading length of tag %d: %w", i, ErrMalformedTags)
		}
		rest = rest[width:]
		if n > uint64(len(rest)) {
			return nil, fmt.Errorf("tag %d overruns blob: %w", i, ErrMalformedTags)
		}
		tags = append(tags, string(rest[:n]))
		rest = rest[n:]
	}
	return tags, nil
}
