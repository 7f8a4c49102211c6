package amf

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"time"
)

// amf0Encoder encodes AMF0, switching into a fresh one-shot AMF3 encode
// whenever it meets an *AVM3 wrapper. Its own object reference table
// (marker 0x07) is identity-keyed exactly like AMF3's, but is a wholly
// separate table: nothing here is shared with amf3Encoder.
type amf0Encoder struct {
	w    *bytes.Buffer
	refs map[Value]int
}

func newAMF0Encoder() *amf0Encoder {
	return &amf0Encoder{w: &bytes.Buffer{}, refs: make(map[Value]int)}
}

// EncodeAMF0 encodes a single value as AMF0. A top-level *AVM3 wrapper
// emits the AVMplusObject marker followed by a fresh AMF3 encoding.
func EncodeAMF0(v Value) ([]byte, error) {
	enc := newAMF0Encoder()
	if err := enc.encodeValue(v); err != nil {
		return nil, err
	}
	return enc.w.Bytes(), nil
}

// EncodeAMF0To appends a single AMF0-encoded value to w with a fresh
// reference table.
func EncodeAMF0To(w *bytes.Buffer, v Value) error {
	enc := &amf0Encoder{w: w, refs: make(map[Value]int)}
	return enc.encodeValue(v)
}

func (e *amf0Encoder) writeByte(b byte) {
	e.w.WriteByte(b)
}

func (e *amf0Encoder) writeBytes(b []byte) {
	e.w.Write(b)
}

func (e *amf0Encoder) writeUint16(n uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], n)
	e.writeBytes(buf[:])
}

func (e *amf0Encoder) writeUint32(n uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	e.writeBytes(buf[:])
}

// writeUTFString writes the 16-bit-length-prefixed string shape used for
// AMF0 keys and String values. Lengths over 65535 are a caller error:
// there is no implicit truncation or promotion here; encodeValue switches
// longer String values to the LongString marker via writeLongUTFString.
func (e *amf0Encoder) writeUTFString(s string) error {
	if len(s) > 0xFFFF {
		return ErrOutOfRange
	}
	e.writeUint16(uint16(len(s)))
	e.writeBytes([]byte(s))
	return nil
}

func (e *amf0Encoder) writeLongUTFString(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return ErrOutOfRange
	}
	e.writeUint32(uint32(len(s)))
	e.writeBytes([]byte(s))
	return nil
}

func (e *amf0Encoder) encodeValue(v Value) error {
	switch val := v.(type) {
	case nil:
		e.writeByte(amf0Null)
		return nil
	case Undefined:
		e.writeByte(amf0Undefined)
		return nil
	case Null:
		e.writeByte(amf0Null)
		return nil
	case Bool:
		e.writeByte(amf0Boolean)
		if val {
			e.writeByte(1)
		} else {
			e.writeByte(0)
		}
		return nil
	case Integer:
		e.writeByte(amf0Number)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(float64(val)))
		e.writeBytes(buf[:])
		return nil
	case Double:
		e.writeByte(amf0Number)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(float64(val)))
		e.writeBytes(buf[:])
		return nil
	case String:
		s := string(val)
		if len(s) > 0xFFFF {
			e.writeByte(amf0LongString)
			return e.writeLongUTFString(s)
		}
		e.writeByte(amf0String)
		return e.writeUTFString(s)
	case *Date:
		return e.encodeDate(val)
	case *XmlDoc:
		return e.encodeXmlDoc(val)
	case *Array:
		return e.encodeArray(val)
	case *Object:
		return e.encodeObject(val)
	case *AVM3:
		return e.encodeAvmPlus(val.Value)
	case *ByteArray, *Xml, *VectorInt, *VectorUint, *VectorDouble, *VectorObject, *Dictionary:
		// AMF0 has no wire shape for these; bridge through AVMplusObject
		// the same way an explicit *AVM3 wrapper would.
		return e.encodeAvmPlus(v)
	default:
		return &UnknownMarkerError{Version: 0}
	}
}

// encodeAvmPlus emits the AVMplusObject marker and then one AMF3 value
// encoded with its own fresh reference tables. The surrounding AMF0
// reference table is untouched by the crossing.
func (e *amf0Encoder) encodeAvmPlus(v Value) error {
	e.writeByte(amf0AvmPlus)
	payload, err := EncodeAMF3(v)
	if err != nil {
		return err
	}
	e.writeBytes(payload)
	return nil
}

func (e *amf0Encoder) objectRef(v Value) (int, bool) {
	idx, ok := e.refs[v]
	return idx, ok
}

func (e *amf0Encoder) addRef(v Value) {
	e.refs[v] = len(e.refs)
}

func (e *amf0Encoder) encodeDate(v *Date) error {
	if idx, ok := e.objectRef(v); ok {
		e.writeByte(amf0Reference)
		e.writeUint16(uint16(idx))
		return nil
	}
	e.addRef(v)
	e.writeByte(amf0Date)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(timeToEpochMillis((time.Time)(*v))))
	e.writeBytes(buf[:])
	e.writeUint16(0) // reserved timezone
	return nil
}

func (e *amf0Encoder) encodeXmlDoc(v *XmlDoc) error {
	if idx, ok := e.objectRef(v); ok {
		e.writeByte(amf0Reference)
		e.writeUint16(uint16(idx))
		return nil
	}
	e.addRef(v)
	e.writeByte(amf0XmlDocument)
	return e.writeLongUTFString(string(*v))
}

func (e *amf0Encoder) encodeArray(v *Array) error {
	if idx, ok := e.objectRef(v); ok {
		e.writeByte(amf0Reference)
		e.writeUint16(uint16(idx))
		return nil
	}
	e.addRef(v)
	if v.Assoc != nil && v.Assoc.Len() > 0 {
		// An array with associative entries becomes an ECMA array. Dense
		// items ride along as their index strings; the leading count is a
		// hint only, the empty-key ObjectEnd marker is the real terminator.
		e.writeByte(amf0EcmaArray)
		e.writeUint32(uint32(len(v.Dense)))
		for i, item := range v.Dense {
			if err := e.writeUTFString(strconv.Itoa(i)); err != nil {
				return err
			}
			if err := e.encodeValue(item); err != nil {
				return err
			}
		}
		return e.encodeProperties(v.Assoc)
	}
	e.writeByte(amf0StrictArray)
	e.writeUint32(uint32(len(v.Dense)))
	for _, item := range v.Dense {
		if err := e.encodeValue(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *amf0Encoder) encodeObject(v *Object) error {
	if idx, ok := e.objectRef(v); ok {
		e.writeByte(amf0Reference)
		e.writeUint16(uint16(idx))
		return nil
	}
	e.addRef(v)
	if v.ClassName != "" {
		e.writeByte(amf0TypedObject)
		if err := e.writeUTFString(v.ClassName); err != nil {
			return err
		}
	} else {
		e.writeByte(amf0Object)
	}
	for _, kv := range v.Sealed {
		if err := e.writeUTFString(kv.Name); err != nil {
			return err
		}
		if err := e.encodeValue(kv.Value); err != nil {
			return err
		}
	}
	if v.Dynamic != nil {
		if err := e.encodeProperties(v.Dynamic); err != nil {
			return err
		}
	} else {
		e.writeUint16(0)
		e.writeByte(amf0ObjectEnd)
	}
	return nil
}

func (e *amf0Encoder) encodeProperties(m *OrderedMap) error {
	for _, key := range m.Keys() {
		val, _ := m.Get(key)
		if err := e.writeUTFString(key); err != nil {
			return err
		}
		if err := e.encodeValue(val); err != nil {
			return err
		}
	}
	e.writeUint16(0)
	e.writeByte(amf0ObjectEnd)
	return nil
}
