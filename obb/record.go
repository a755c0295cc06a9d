// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import "encoding/binary"

var le = binary.LittleEndian

// A record is the encoded form of a file table entry.
type record struct {
	NameOffset uint32
	NameLength uint32
	DataOffset uint32
	DataLength uint32
	FullLength uint32
}

func parseRecord(b []byte) record {
	_ = b[recordSize-1]
	return record{
		NameOffset: le.Uint32(b[0:]),
		NameLength: le.Uint32(b[4:]),
		DataOffset: le.Uint32(b[8:]),
		DataLength: le.Uint32(b[12:]),
		FullLength: le.Uint32(b[16:]),
	}
}

func (r record) appendTo(dst []byte) []byte {
	dst = le.AppendUint32(dst, r.NameOffset)
	dst = le.AppendUint32(dst, r.NameLength)
	dst = le.AppendUint32(dst, r.DataOffset)
	dst = le.AppendUint32(dst, r.DataLength)
	return le.AppendUint32(dst, r.FullLength)
}

// inRange reports whether the span of size bytes at off lies within n bytes.
func inRange(n int, off, size uint32) bool { return uint64(off)+uint64(size) <= uint64(n) }
