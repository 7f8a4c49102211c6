package amf

import (
	"bytes"
	"testing"
)

func TestU29RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, maxU29}

	for _, v := range values {
		var buf bytes.Buffer
		if err := writeU29(&buf, v); err != nil {
			t.Fatalf("writeU29(%d): %v", v, err)
		}
		r := bytes.NewReader(buf.Bytes())
		got, err := readU29(r)
		if err != nil {
			t.Fatalf("readU29 after writing %d: %v", v, err)
		}
		if got != v {
			t.Errorf("roundtrip %d got %d", v, got)
		}
		if r.Len() != 0 {
			t.Errorf("value %d: %d trailing bytes", v, r.Len())
		}
	}
}

func TestU29EncodeLengths(t *testing.T) {
	cases := []struct {
		value uint32
		bytes int
	}{
		{0, 1},
		{0x7F, 1},
		{0x80, 2},
		{0x3FFF, 2},
		{0x4000, 3},
		{0x1FFFFF, 3},
		{0x200000, 4},
		{maxU29, 4},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := writeU29(&buf, c.value); err != nil {
			t.Fatalf("writeU29(%d): %v", c.value, err)
		}
		if buf.Len() != c.bytes {
			t.Errorf("value %#x: want %d bytes, got %d", c.value, c.bytes, buf.Len())
		}
	}
}

func TestU29OutOfRange(t *testing.T) {
	var buf bytes.Buffer
	if err := writeU29(&buf, maxU29+1); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestU29Truncated(t *testing.T) {
	r := bytes.NewReader([]byte{0x80})
	if _, err := readU29(r); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestSignExtend29(t *testing.T) {
	cases := []struct {
		in   uint32
		want int32
	}{
		{0, 0},
		{1, 1},
		{u29IntMax, u29IntMax},
		{1 << 28, u29IntMin},
		{maxU29, -1},
	}
	for _, c := range cases {
		if got := signExtend29(c.in); got != c.want {
			t.Errorf("signExtend29(%#x) = %d, want %d", c.in, got, c.want)
		}
	}
}
