package decoder

import "encoding/binary"

// cursor is a bounds-checked little-endian reader over a fixed byte
// buffer. Every read past the end of buf returns a *DataTooShortError
// instead of panicking, matching the decoder's "never allocate beyond
// the parsed list's necessary capacity, never read out of bounds"
// contract.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.buf) {
		return &DataTooShortError{Expected: c.pos + n, Actual: len(c.buf)}
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

func (c *cursor) bytes32() ([32]byte, error) {
	var out [32]byte
	if err := c.need(32); err != nil {
		return out, err
	}
	copy(out[:], c.buf[c.pos:c.pos+32])
	c.pos += 32
	return out, nil
}

func (c *cursor) bytes16() ([16]byte, error) {
	var out [16]byte
	if err := c.need(16); err != nil {
		return out, err
	}
	copy(out[:], c.buf[c.pos:c.pos+16])
	c.pos += 16
	return out, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) i16() (int16, error) {
	v, err := c.u16()
	return int16(v), err
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) u64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) i64() (int64, error) {
	v, err := c.u64()
	return int64(v), err
}
