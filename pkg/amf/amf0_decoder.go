package amf

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// amf0Decoder decodes AMF0, switching to a one-shot AMF3 decode whenever
// it encounters the AVMplusObject marker. Its own
// reference table (marker 0x07) is unrelated to, and never shared with,
// any AMF3 reference table — each AVMPlus crossing gets fresh AMF3
// tables, and the surrounding AMF0 table is untouched by the crossing.
type amf0Decoder struct {
	r        *bytes.Reader
	refs     []Value
	maxAlloc int
}

func newAMF0Decoder(r *bytes.Reader, maxAlloc int) *amf0Decoder {
	return &amf0Decoder{r: r, maxAlloc: maxAlloc}
}

// DecodeAMF0 decodes a single AMF0 value from r, using DefaultMaxAlloc as
// the allocation ceiling. If the value is an AVMplusObject marker, the
// returned Value is the AMF3 value that followed it, decoded with its
// own fresh reference tables.
func DecodeAMF0(r *bytes.Reader) (Value, error) {
	return DecodeAMF0WithLimit(r, DefaultMaxAlloc)
}

// DecodeAMF0WithLimit decodes a single AMF0 value from r, rejecting any
// single length-prefixed allocation that would exceed maxAlloc. The
// same ceiling is carried across an AVMplusObject crossing into AMF3.
func DecodeAMF0WithLimit(r *bytes.Reader, maxAlloc int) (Value, error) {
	return newAMF0Decoder(r, maxAlloc).decodeValue()
}

func (d *amf0Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, ErrTruncated
	}
	return b, nil
}

func (d *amf0Decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || n > d.r.Len() {
		return nil, ErrTruncated
	}
	if n > d.maxAlloc {
		return nil, ErrOutOfRange
	}
	buf := make([]byte, n)
	if _, err := d.r.Read(buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

func (d *amf0Decoder) readUint16() (uint16, error) {
	buf, err := d.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (d *amf0Decoder) readUint32() (uint32, error) {
	buf, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// readUTFString reads the 16-bit-length-prefixed UTF-8 string shape used
// throughout AMF0 for keys and short strings.
func (d *amf0Decoder) readUTFString() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", err
	}
	buf, err := d.readBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

func (d *amf0Decoder) readLongUTFString() (string, error) {
	n, err := d.readUint32()
	if err != nil {
		return "", err
	}
	buf, err := d.readBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

func (d *amf0Decoder) decodeValue() (Value, error) {
	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return d.decodeByMarker(marker)
}

func (d *amf0Decoder) decodeByMarker(marker byte) (Value, error) {
	switch marker {
	case amf0Number:
		buf, err := d.readBytes(8)
		if err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(buf))), nil
	case amf0Boolean:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return Bool(b != 0), nil
	case amf0String:
		s, err := d.readUTFString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case amf0LongString:
		s, err := d.readLongUTFString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case amf0Object:
		return d.decodeObject("")
	case amf0Null:
		return Null{}, nil
	case amf0Undefined:
		return Undefined{}, nil
	case amf0Reference:
		idx, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(d.refs) {
			return nil, &BadReferenceError{Kind: RefTableObject, Index: int(idx), Len: len(d.refs)}
		}
		return d.refs[idx], nil
	case amf0EcmaArray:
		// Count is a hint only; the real terminator is the empty-key
		// ObjectEnd marker (grounded on balazshorvath-goamf's Parser).
		if _, err := d.readUint32(); err != nil {
			return nil, err
		}
		arr := NewArray()
		d.refs = append(d.refs, arr)
		if err := d.decodeProperties(arr.Assoc); err != nil {
			return nil, err
		}
		return arr, nil
	case amf0StrictArray:
		length, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		if int(length) < 0 || int(length) > d.r.Len() {
			return nil, ErrTruncated
		}
		if int(length) > d.maxAlloc {
			return nil, ErrOutOfRange
		}
		arr := NewArray()
		d.refs = append(d.refs, arr)
		arr.Dense = make([]Value, length)
		for i := range arr.Dense {
			val, err := d.decodeValue()
			if err != nil {
				return nil, err
			}
			arr.Dense[i] = val
		}
		return arr, nil
	case amf0Date:
		buf, err := d.readBytes(8)
		if err != nil {
			return nil, err
		}
		if _, err := d.readBytes(2); err != nil { // reserved timezone, ignored
			return nil, err
		}
		millis := math.Float64frombits(binary.BigEndian.Uint64(buf))
		v := Date(epochMillisToTime(millis))
		d.refs = append(d.refs, &v)
		return &v, nil
	case amf0XmlDocument:
		s, err := d.readLongUTFString()
		if err != nil {
			return nil, err
		}
		v := XmlDoc(s)
		d.refs = append(d.refs, &v)
		return &v, nil
	case amf0TypedObject:
		className, err := d.readUTFString()
		if err != nil {
			return nil, err
		}
		return d.decodeObject(className)
	case amf0AvmPlus:
		return DecodeAMF3WithLimit(d.r, d.maxAlloc)
	case amf0MovieClip, amf0Unsupported, amf0RecordSet:
		return nil, &UnknownMarkerError{Marker: marker, Version: 0}
	default:
		return nil, &UnknownMarkerError{Marker: marker, Version: 0}
	}
}

func (d *amf0Decoder) decodeObject(className string) (Value, error) {
	obj := &Object{ClassName: className, Dynamic: NewOrderedMap()}
	d.refs = append(d.refs, obj)
	if err := d.decodeProperties(obj.Dynamic); err != nil {
		return nil, err
	}
	return obj, nil
}

// decodeProperties reads key/value pairs terminated by an empty key
// followed by the ObjectEnd marker.
func (d *amf0Decoder) decodeProperties(into *OrderedMap) error {
	for {
		key, err := d.readUTFString()
		if err != nil {
			return err
		}
		if key == "" {
			marker, err := d.readByte()
			if err != nil {
				return err
			}
			if marker != amf0ObjectEnd {
				return &UnknownMarkerError{Marker: marker, Version: 0}
			}
			return nil
		}
		marker, err := d.readByte()
		if err != nil {
			return err
		}
		val, err := d.decodeByMarker(marker)
		if err != nil {
			return err
		}
		into.Set(key, val)
	}
}
