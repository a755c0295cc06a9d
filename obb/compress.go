// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compress returns the zlib encoding of data at the given level.
func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompress decodes zlib data that should expand to exactly size bytes.
func decompress(data []byte, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, io.LimitReader(zr, int64(size)+1)); err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if buf.Len() != int(size) {
		return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, buf.Len(), size)
	}
	return buf.Bytes(), nil
}
