package amf

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// amf3Encoder encodes a single AMF3 message. It owns one set of reference
// tables for the lifetime of the call, matching the decoder.
type amf3Encoder struct {
	w      *bytes.Buffer
	tables *encodeTables
}

func newAMF3Encoder() *amf3Encoder {
	return &amf3Encoder{w: new(bytes.Buffer), tables: newEncodeTables()}
}

// EncodeAMF3 encodes v as a single AMF3 value, starting with fresh
// reference tables.
func EncodeAMF3(v Value) ([]byte, error) {
	enc := newAMF3Encoder()
	if err := enc.encodeValue(v); err != nil {
		return nil, err
	}
	return enc.w.Bytes(), nil
}

// EncodeAMF3To appends a single AMF3 value to w, starting with fresh
// reference tables. Callers that batch several values into one buffer
// get reference sharing within each value only, never across values.
func EncodeAMF3To(w *bytes.Buffer, v Value) error {
	enc := &amf3Encoder{w: w, tables: newEncodeTables()}
	return enc.encodeValue(v)
}

func (e *amf3Encoder) writeByte(b byte) error {
	return e.w.WriteByte(b)
}

func (e *amf3Encoder) writeU29(v uint32) error {
	return writeU29(e.w, v)
}

func (e *amf3Encoder) writeBytes(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

// EncodeValue lets a registered ExternalizableWriter append further AMF3
// values to the same stream and reference tables. It satisfies
// ExternalizableEncoder.
func (e *amf3Encoder) EncodeValue(v Value) error {
	return e.encodeValue(v)
}

// encodeStringValue writes the raw AMF3 string payload used for trait
// names, class names, and associative/dynamic property keys: a plain U29
// header (reference or inline length) followed by UTF-8 bytes, with NO
// leading type marker byte. Do not route these through encodeString: that
// writer prefixes the 0x06 String marker, which has no business appearing
// inside trait metadata or an Array header and would corrupt the frame.
func (e *amf3Encoder) encodeStringValue(s string) error {
	if s == "" {
		return e.writeU29(1)
	}
	if idx, ok := e.tables.stringRef(s); ok {
		return e.writeU29(uint32(idx) << 1)
	}
	e.tables.addString(s)
	if err := e.writeU29(uint32(len(s))<<1 | 1); err != nil {
		return err
	}
	return e.writeBytes([]byte(s))
}

// encodeString writes the String marker (0x06) followed by the raw
// string payload. This is the only writer allowed to emit 0x06.
func (e *amf3Encoder) encodeString(s string) error {
	if err := e.writeByte(amf3String); err != nil {
		return err
	}
	return e.encodeStringValue(s)
}

func (e *amf3Encoder) encodeValue(v Value) error {
	switch val := v.(type) {
	case nil:
		return e.writeByte(amf3Null)
	case Undefined:
		return e.writeByte(amf3Undefined)
	case Null:
		return e.writeByte(amf3Null)
	case Bool:
		if val {
			return e.writeByte(amf3True)
		}
		return e.writeByte(amf3False)
	case Integer:
		return e.encodeInteger(int32(val))
	case Double:
		return e.encodeDouble(float64(val))
	case String:
		return e.encodeString(string(val))
	case *XmlDoc:
		return e.encodeRefTabled(v, amf3XmlDoc, func() error { return e.encodeLengthPrefixed([]byte(*val)) })
	case *Xml:
		return e.encodeRefTabled(v, amf3Xml, func() error { return e.encodeLengthPrefixed([]byte(*val)) })
	case *ByteArray:
		return e.encodeRefTabled(v, amf3ByteArray, func() error { return e.encodeLengthPrefixed([]byte(*val)) })
	case *Date:
		return e.encodeDate(v, val)
	case *Array:
		return e.encodeArray(v, val)
	case *Object:
		return e.encodeObject(v, val)
	case *VectorInt:
		return e.encodeVectorInt(v, val)
	case *VectorUint:
		return e.encodeVectorUint(v, val)
	case *VectorDouble:
		return e.encodeVectorDouble(v, val)
	case *VectorObject:
		return e.encodeVectorObject(v, val)
	case *Dictionary:
		return e.encodeDictionary(v, val)
	default:
		return &UnknownMarkerError{Version: 3}
	}
}

// encodeInteger emits Integer (0x04) when the value fits 29 signed bits,
// otherwise promotes to Double.
func (e *amf3Encoder) encodeInteger(v int32) error {
	if !fitsSignedU29(int64(v)) {
		return e.encodeDouble(float64(v))
	}
	if err := e.writeByte(amf3Integer); err != nil {
		return err
	}
	return e.writeU29(uint32(v) & maxU29)
}

// encodeDouble emits Double (0x05). Non-finite values (NaN, +-Inf) and
// integers outside the 29-bit signed range both land here.
func (e *amf3Encoder) encodeDouble(v float64) error {
	if err := e.writeByte(amf3Double); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	return e.writeBytes(buf[:])
}

// encodeRefTabled is the common shape for XmlDoc/Xml/ByteArray: marker
// byte, then object-ref-or-inline-length header, then (on first
// emission) the payload, with the ref-table slot reserved before
// writeInline runs so self-reference during payload writing (impossible
// for these leaf types, but kept uniform with Object/Array/Vector*/
// Dictionary) would still terminate.
func (e *amf3Encoder) encodeRefTabled(identity Value, marker byte, writeInline func() error) error {
	if err := e.writeByte(marker); err != nil {
		return err
	}
	if idx, ok := e.tables.objectRef(identity); ok {
		return e.writeU29(uint32(idx) << 1)
	}
	e.tables.reserveObjectIdentity(identity)
	return writeInline()
}

func (e *amf3Encoder) encodeLengthPrefixed(b []byte) error {
	if err := e.writeU29(uint32(len(b))<<1 | 1); err != nil {
		return err
	}
	return e.writeBytes(b)
}

func (e *amf3Encoder) encodeDate(identity Value, v *Date) error {
	return e.encodeRefTabled(identity, amf3Date, func() error {
		if err := e.writeU29(1); err != nil {
			return err
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(timeToEpochMillis(time.Time(*v))))
		return e.writeBytes(buf[:])
	})
}

func (e *amf3Encoder) encodeArray(identity Value, arr *Array) error {
	return e.encodeRefTabled(identity, amf3Array, func() error {
		if err := e.writeU29(uint32(len(arr.Dense))<<1 | 1); err != nil {
			return err
		}
		if arr.Assoc != nil {
			for _, key := range arr.Assoc.Keys() {
				val, _ := arr.Assoc.Get(key)
				if err := e.encodeStringValue(key); err != nil {
					return err
				}
				if err := e.encodeValue(val); err != nil {
					return err
				}
			}
		}
		if err := e.encodeStringValue(""); err != nil {
			return err
		}
		for _, item := range arr.Dense {
			if err := e.encodeValue(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// encodeObject writes the Object marker, then either an object
// reference, or a trait reference / inline trait header followed by the
// sealed values (in trait-declared order) and, if dynamic, the
// terminated dynamic pairs. Externalizable objects delegate their body
// to the registered writer.
func (e *amf3Encoder) encodeObject(identity Value, obj *Object) error {
	if err := e.writeByte(amf3Object); err != nil {
		return err
	}
	if idx, ok := e.tables.objectRef(identity); ok {
		return e.writeU29(uint32(idx) << 1)
	}

	sealedNames := make([]string, len(obj.Sealed))
	for i, kv := range obj.Sealed {
		sealedNames[i] = kv.Name
	}
	// Whether the trait is dynamic is carried by Object.Dynamic being
	// non-nil, not by it being non-empty: a dynamic object with zero
	// dynamic properties at encode time must still round-trip as
	// dynamic=true (the decoder only allocates Dynamic when the trait
	// it read said dynamic=true; see decodeObject).
	trait := Trait{
		ClassName:      obj.ClassName,
		SealedNames:    sealedNames,
		Dynamic:        obj.Dynamic != nil,
		Externalizable: obj.Externalizable,
	}

	if traitIdx, ok := e.tables.traitRef(trait); ok {
		if err := e.writeU29(uint32(traitIdx)<<2 | 0b01); err != nil {
			return err
		}
	} else {
		e.tables.addTrait(trait)
		// H = sealedCount<<4 | dynamic<<3 | externalizable<<2 | inlineTrait<<1 | inlineObject
		// externalizable short-circuits sealed-name reading, so sealedCount
		// is always 0 for an externalizable trait.
		sealedCount := uint32(len(sealedNames))
		if trait.Externalizable {
			sealedCount = 0
		}
		header := sealedCount<<4 | boolBit(trait.Dynamic)<<3 | boolBit(trait.Externalizable)<<2 | 0b11
		if err := e.writeU29(header); err != nil {
			return err
		}
		if err := e.encodeStringValue(trait.ClassName); err != nil {
			return err
		}
		if !trait.Externalizable {
			for _, name := range sealedNames {
				if err := e.encodeStringValue(name); err != nil {
					return err
				}
			}
		}
	}

	e.tables.reserveObjectIdentity(identity)

	if obj.Externalizable {
		writer, ok := lookupExternalizableWriter(obj.ClassName)
		if ok {
			return writer(e, obj.External)
		}
		if obj.Payload != nil {
			return e.writeBytes(obj.Payload)
		}
		return ErrMalformedTrait
	}

	for _, kv := range obj.Sealed {
		if err := e.encodeValue(kv.Value); err != nil {
			return err
		}
	}
	if trait.Dynamic && obj.Dynamic != nil {
		for _, key := range obj.Dynamic.Keys() {
			val, _ := obj.Dynamic.Get(key)
			if err := e.encodeStringValue(key); err != nil {
				return err
			}
			if err := e.encodeValue(val); err != nil {
				return err
			}
		}
		if err := e.encodeStringValue(""); err != nil {
			return err
		}
	}
	return nil
}

func (e *amf3Encoder) encodeVectorInt(identity Value, v *VectorInt) error {
	return e.encodeRefTabled(identity, amf3VectorInt, func() error {
		if err := e.writeU29(uint32(len(v.Items))<<1 | 1); err != nil {
			return err
		}
		if err := e.writeByte(boolByte(v.Fixed)); err != nil {
			return err
		}
		for _, item := range v.Items {
			var buf [4]byte
			binary.BigEndian.PutUint32(buf[:], uint32(item))
			if err := e.writeBytes(buf[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *amf3Encoder) encodeVectorUint(identity Value, v *VectorUint) error {
	return e.encodeRefTabled(identity, amf3VectorUint, func() error {
		if err := e.writeU29(uint32(len(v.Items))<<1 | 1); err != nil {
			return err
		}
		if err := e.writeByte(boolByte(v.Fixed)); err != nil {
			return err
		}
		for _, item := range v.Items {
			var buf [4]byte
			binary.BigEndian.PutUint32(buf[:], item)
			if err := e.writeBytes(buf[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *amf3Encoder) encodeVectorDouble(identity Value, v *VectorDouble) error {
	return e.encodeRefTabled(identity, amf3VectorDouble, func() error {
		if err := e.writeU29(uint32(len(v.Items))<<1 | 1); err != nil {
			return err
		}
		if err := e.writeByte(boolByte(v.Fixed)); err != nil {
			return err
		}
		for _, item := range v.Items {
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(item))
			if err := e.writeBytes(buf[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *amf3Encoder) encodeVectorObject(identity Value, v *VectorObject) error {
	return e.encodeRefTabled(identity, amf3VectorObject, func() error {
		if err := e.writeU29(uint32(len(v.Items))<<1 | 1); err != nil {
			return err
		}
		if err := e.writeByte(boolByte(v.Fixed)); err != nil {
			return err
		}
		if err := e.encodeStringValue(v.TypeName); err != nil {
			return err
		}
		for _, item := range v.Items {
			if err := e.encodeValue(item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *amf3Encoder) encodeDictionary(identity Value, v *Dictionary) error {
	return e.encodeRefTabled(identity, amf3Dictionary, func() error {
		if err := e.writeU29(uint32(len(v.Entries))<<1 | 1); err != nil {
			return err
		}
		if err := e.writeByte(boolByte(v.WeakKeys)); err != nil {
			return err
		}
		for _, entry := range v.Entries {
			if err := e.encodeValue(entry.Key); err != nil {
				return err
			}
			if err := e.encodeValue(entry.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
