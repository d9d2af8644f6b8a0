// Package structpack writes fixed binary records field by field: little-endian,
// standard widths, explicit padding. A Packer collects the first write error
// and ignores everything after it, so a record can be assembled as one chain
// and checked once.
package structpack

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Packer accumulates a little-endian record.
type Packer struct {
	buf bytes.Buffer
	err error
}

// New returns an empty Packer.
func New() *Packer {
	return &Packer{}
}

func (p *Packer) write(v any) *Packer {
	if p.err != nil {
		return p
	}
	if err := binary.Write(&p.buf, binary.LittleEndian, v); err != nil {
		p.err = fmt.Errorf("structpack: writing %T at offset %d: %w", v, p.buf.Len(), err)
	}
	return p
}

// U8 appends an unsigned byte.
func (p *Packer) U8(v uint8) *Packer { return p.write(v) }

// Bool appends a byte that is 1 for true and 0 for false.
func (p *Packer) Bool(v bool) *Packer {
	if v {
		return p.U8(1)
	}
	return p.U8(0)
}

// U16 appends an unsigned 16-bit value.
func (p *Packer) U16(v uint16) *Packer { return p.write(v) }

// I16 appends a signed 16-bit value.
func (p *Packer) I16(v int16) *Packer { return p.write(v) }

// U32 appends an unsigned 32-bit value.
func (p *Packer) U32(v uint32) *Packer { return p.write(v) }

// I32 appends a signed 32-bit value.
func (p *Packer) I32(v int32) *Packer { return p.write(v) }

// Pad appends n zero bytes.
func (p *Packer) Pad(n int) *Packer {
	if p.err != nil {
		return p
	}
	if n < 0 {
		p.err = fmt.Errorf("structpack: negative padding %d", n)
		return p
	}
	p.buf.Write(make([]byte, n))
	return p
}

// Len is the number of bytes written so far.
func (p *Packer) Len() int {
	return p.buf.Len()
}

// Finish returns the record, or the first error encountered.
func (p *Packer) Finish() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]byte, p.buf.Len())
	copy(out, p.buf.Bytes())
	return out, nil
}

// MustFinish is Finish for records built only from fixed-width fields,
// where a write error is a programming mistake.
func (p *Packer) MustFinish() []byte {
	b, err := p.Finish()
	if err != nil {
		panic(err)
	}
	return b
}

// Expect returns an error when the record is not exactly size bytes long.
func (p *Packer) Expect(size int) *Packer {
	if p.err == nil && p.buf.Len() != size {
		p.err = fmt.Errorf("structpack: record is %d bytes, want %d", p.buf.Len(), size)
	}
	return p
}
