package ahtable

import "encoding/binary"

// Record layout inside a bucket's slot region (spec §3.2):
//
//	[ varint keylen ] [ keylen key bytes ] [ 8-byte little-endian value ]
//
// The varint is exactly the base-128, 7-bit-continuation encoding that
// encoding/binary.PutUvarint/Uvarint already implement, so no hand-rolled
// varint codec is needed here (see DESIGN.md).
const valueSize = 8

// appendRecord appends a new record for (key, value) to buf and returns
// the (possibly reallocated) slice.
func appendRecord(buf []byte, key []byte, value uint64) []byte {
	var valBuf [valueSize]byte
	binary.LittleEndian.PutUint64(valBuf[:], value)
	return appendRecordBytes(buf, key, valBuf[:])
}

// appendRecordBytes appends a record whose value is already encoded as
// valueSize little-endian bytes (used by resize, which moves raw value
// bytes without decoding them back to a uint64 and re-encoding).
func appendRecordBytes(buf []byte, key []byte, valueBytes []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(key)))
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, key...)
	buf = append(buf, valueBytes...)
	return buf
}

// decodeRecord parses one record starting at buf[pos:]. It returns a
// borrowed view of the record's key (pointing into buf), the offset of
// the record's value bytes, the total byte length of the record (for
// advancing a scan), and whether decoding succeeded. Decoding only fails
// on a corrupt slot region, which cannot occur through this package's own
// API.
func decodeRecord(buf []byte, pos int) (key []byte, valOff int, recLen int, ok bool) {
	keylen, n := binary.Uvarint(buf[pos:])
	if n <= 0 {
		return nil, 0, 0, false
	}
	keyStart := pos + n
	keyEnd := keyStart + int(keylen)
	valEnd := keyEnd + valueSize
	if valEnd > len(buf) {
		return nil, 0, 0, false
	}
	return buf[keyStart:keyEnd], keyEnd, valEnd - pos, true
}
