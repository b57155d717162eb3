// Package codec implements the binary wire format for guestbook records.
//
// A record is encoded as its fields in fixed order, each string field as a
// 4-byte little-endian length prefix followed by that many UTF-8 bytes. The
// name field comes first, which lets the account index derive a sort key from
// a short data slice without fetching the rest of the record.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Record is one guestbook entry as stored in a ledger account.
type Record struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// lenPrefixSize is the width of every string length prefix.
const lenPrefixSize = 4

var (
	// ErrEmpty is returned when decoding an empty or absent buffer.
	ErrEmpty = errors.New("record: empty buffer")

	// ErrTruncated is returned when the buffer ends before a declared
	// field length is satisfied.
	ErrTruncated = errors.New("record: truncated buffer")

	// ErrInvalidUTF8 is returned when a string field holds bytes that are
	// not valid UTF-8.
	ErrInvalidUTF8 = errors.New("record: invalid utf-8")
)

// Encode serializes r into its binary form. Encoding is total: any Record
// value produces a valid buffer.
func Encode(r Record) []byte {
	buf := make([]byte, 0, 2*lenPrefixSize+len(r.Name)+len(r.Message))
	buf = appendString(buf, r.Name)
	buf = appendString(buf, r.Message)
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// Decode parses a full record buffer. All malformed inputs yield an error;
// a partially populated Record is never returned.
func Decode(data []byte) (Record, error) {
	if len(data) == 0 {
		return Record{}, ErrEmpty
	}
	r := newReader(data)
	name, err := r.readString("name")
	if err != nil {
		return Record{}, err
	}
	message, err := r.readString("message")
	if err != nil {
		return Record{}, err
	}
	return Record{Name: name, Message: message}, nil
}

// ExtractName returns the raw bytes of the name field from a record prefix.
// The buffer only needs to cover the name length prefix and the name itself;
// callers fetch just that slice from the ledger, so the message field must
// not be assumed present.
func ExtractName(partial []byte) ([]byte, error) {
	if len(partial) == 0 {
		return nil, ErrEmpty
	}
	r := newReader(partial)
	return r.readBytes("name")
}

// NamePrefix returns the bytes of the name field that are present in a
// record prefix. Unlike ExtractName it tolerates a slice that cuts the name
// short: a name whose declared length runs past the buffer yields the bytes
// that are there. The index sorts on this, so an account whose name exceeds
// the fetched slice still orders by the bytes the slice covers.
func NamePrefix(partial []byte) ([]byte, error) {
	if len(partial) == 0 {
		return nil, ErrEmpty
	}
	if len(partial) < lenPrefixSize {
		return nil, fmt.Errorf("name length prefix: %w", ErrTruncated)
	}
	n := int(binary.LittleEndian.Uint32(partial))
	b := partial[lenPrefixSize:]
	if n < len(b) {
		b = b[:n]
	}
	return b, nil
}

// reader is a cursor over an encoded record.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) readBytes(field string) ([]byte, error) {
	if r.pos+lenPrefixSize > len(r.data) {
		return nil, fmt.Errorf("%s length prefix: %w", field, ErrTruncated)
	}
	n := int(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += lenPrefixSize
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%s: declared %d bytes, %d remain: %w",
			field, n, len(r.data)-r.pos, ErrTruncated)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readString(field string) (string, error) {
	b, err := r.readBytes(field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s: %w", field, ErrInvalidUTF8)
	}
	return string(b), nil
}
