package decoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	elerrors "github.com/arkilian/eventlog/internal/errors"
)

// previewLen bounds the remaining-input preview attached to decode errors.
const previewLen = 16

// input is an immutable cursor over the eventlog buffer. Every primitive
// returns an advanced copy, so a failed attempt leaves the caller's cursor
// where it was.
type input struct {
	buf []byte
	pos int
}

func newInput(buf []byte) input {
	return input{buf: buf}
}

// rest returns the unconsumed bytes.
func (in input) rest() []byte {
	return in.buf[in.pos:]
}

// remaining returns the number of unconsumed bytes.
func (in input) remaining() int {
	return len(in.buf) - in.pos
}

// hasPrefix reports whether the unconsumed bytes start with lit.
func (in input) hasPrefix(lit []byte) bool {
	return bytes.HasPrefix(in.rest(), lit)
}

// fail builds a decode error positioned at the cursor.
func (in input) fail(code, message string) error {
	return elerrors.NewDecodeError(code, message, in.pos).WithDetails(map[string]interface{}{
		"remaining": preview(in.rest()),
	})
}

// take consumes exactly n bytes.
func (in input) take(n uint64, what string) ([]byte, input, error) {
	if n > uint64(in.remaining()) {
		return nil, in, in.fail(elerrors.CodeTruncatedInput,
			fmt.Sprintf("%s: need %d bytes, %d remain", what, n, in.remaining()))
	}
	end := in.pos + int(n)
	out := in.buf[in.pos:end]
	in.pos = end
	return out, in, nil
}

// tag consumes len(lit) bytes that must equal lit.
func (in input) tag(lit []byte) (input, error) {
	if !in.hasPrefix(lit) {
		return in, in.fail(elerrors.CodeTagMismatch, fmt.Sprintf("expected tag %q", lit))
	}
	in.pos += len(lit)
	return in, nil
}

func (in input) u16(what string) (uint16, input, error) {
	b, next, err := in.take(2, what)
	if err != nil {
		return 0, in, err
	}
	return binary.BigEndian.Uint16(b), next, nil
}

func (in input) i16(what string) (int16, input, error) {
	v, next, err := in.u16(what)
	return int16(v), next, err
}

func (in input) u32(what string) (uint32, input, error) {
	b, next, err := in.take(4, what)
	if err != nil {
		return 0, in, err
	}
	return binary.BigEndian.Uint32(b), next, nil
}

func (in input) u64(what string) (uint64, input, error) {
	b, next, err := in.take(8, what)
	if err != nil {
		return 0, in, err
	}
	return binary.BigEndian.Uint64(b), next, nil
}

// block16 consumes a 16-bit length prefix and that many bytes.
func (in input) block16(what string) ([]byte, input, error) {
	n, next, err := in.u16(what + " length")
	if err != nil {
		return nil, in, err
	}
	b, next, err := next.take(uint64(n), what)
	if err != nil {
		return nil, in, err
	}
	return b, next, nil
}

// block32 consumes a 32-bit length prefix and that many bytes.
func (in input) block32(what string) ([]byte, input, error) {
	n, next, err := in.u32(what + " length")
	if err != nil {
		return nil, in, err
	}
	b, next, err := next.take(uint64(n), what)
	if err != nil {
		return nil, in, err
	}
	return b, next, nil
}

// clone copies b out of the input buffer. The result is never nil.
func clone(b []byte) []byte {
	return append([]byte{}, b...)
}

func preview(b []byte) string {
	if len(b) > previewLen {
		return fmt.Sprintf("% x ...", b[:previewLen])
	}
	return fmt.Sprintf("% x", b)
}
