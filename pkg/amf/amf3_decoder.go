package amf

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// amf3Decoder decodes a single AMF3 message. It owns one set of reference
// tables for the lifetime of the call; nothing here is safe to reuse
// across messages.
type amf3Decoder struct {
	r        *bytes.Reader
	tables   *decodeTables
	maxAlloc int
}

func newAMF3Decoder(r *bytes.Reader, maxAlloc int) *amf3Decoder {
	return &amf3Decoder{r: r, tables: newDecodeTables(), maxAlloc: maxAlloc}
}

// DecodeAMF3 decodes a single AMF3 value from r, starting with fresh
// reference tables and DefaultMaxAlloc as the allocation ceiling.
func DecodeAMF3(r *bytes.Reader) (Value, error) {
	return DecodeAMF3WithLimit(r, DefaultMaxAlloc)
}

// DecodeAMF3WithLimit decodes a single AMF3 value from r, rejecting any
// single length-prefixed allocation that would exceed maxAlloc.
func DecodeAMF3WithLimit(r *bytes.Reader, maxAlloc int) (Value, error) {
	return newAMF3Decoder(r, maxAlloc).decodeValue()
}

// checkAlloc rejects a length-prefixed allocation whose size would
// exceed the decoder's configured ceiling, independent of how much
// input actually remains in the buffer.
func (d *amf3Decoder) checkAlloc(n int) error {
	if n < 0 || n > d.maxAlloc {
		return ErrOutOfRange
	}
	return nil
}

func (d *amf3Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, ErrTruncated
	}
	return b, nil
}

// readBytes reads exactly n bytes, refusing to honor a length that
// exceeds what's actually left in the buffer: a forged U29 length must
// not trigger an unbounded make([]byte, n).
func (d *amf3Decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || n > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := d.r.Read(buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

func (d *amf3Decoder) readU29() (uint32, error) {
	return readU29(d.r)
}

// readFixed reads exactly n bytes into a pooled scratch buffer and hands
// it to decode, returning it to the pool afterward. Only safe for callers
// that fully consume the bytes before returning (Double and Date use it;
// Vector elements go through readBytes) — unlike readBytes, the scratch
// buffer must never be retained by the decoded Value (String/ByteArray/Xml
// keep readBytes' fresh slice).
func (d *amf3Decoder) readFixed(n int, decode func([]byte)) error {
	if n > d.r.Len() {
		return ErrTruncated
	}
	if err := d.checkAlloc(n); err != nil {
		return err
	}
	buf := getBuf(n)
	defer putBuf(buf)
	if _, err := d.r.Read(buf); err != nil {
		return ErrTruncated
	}
	decode(buf)
	return nil
}

// readHeaderIndex reads a U29 header and splits it into the reference-vs-
// inline low bit and the remaining index/length bits.
func (d *amf3Decoder) readHeaderIndex() (isInline bool, rest uint32, err error) {
	u29, err := d.readU29()
	if err != nil {
		return false, 0, err
	}
	return u29&1 == 1, u29 >> 1, nil
}

func (d *amf3Decoder) decodeValue() (Value, error) {
	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return d.decodeByMarker(marker)
}

// DecodeValue lets a registered ExternalizableReader pull further AMF3
// values from the same stream and reference tables, positioned wherever
// the reader has advanced to. It satisfies ExternalizableDecoder.
func (d *amf3Decoder) DecodeValue() (Value, error) {
	return d.decodeValue()
}

func (d *amf3Decoder) decodeByMarker(marker byte) (Value, error) {
	switch marker {
	case amf3Undefined:
		return Undefined{}, nil
	case amf3Null:
		return Null{}, nil
	case amf3False:
		return Bool(false), nil
	case amf3True:
		return Bool(true), nil
	case amf3Integer:
		return d.decodeInteger()
	case amf3Double:
		return d.decodeDouble()
	case amf3String:
		s, err := d.decodeStringValue()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case amf3XmlDoc:
		return d.decodeXmlDoc()
	case amf3Xml:
		return d.decodeXml()
	case amf3ByteArray:
		return d.decodeByteArray()
	case amf3Date:
		return d.decodeDate()
	case amf3Array:
		return d.decodeArray()
	case amf3Object:
		return d.decodeObject()
	case amf3VectorInt:
		return d.decodeVectorInt()
	case amf3VectorUint:
		return d.decodeVectorUint()
	case amf3VectorDouble:
		return d.decodeVectorDouble()
	case amf3VectorObject:
		return d.decodeVectorObject()
	case amf3Dictionary:
		return d.decodeDictionary()
	default:
		return nil, &UnknownMarkerError{Marker: marker, Version: 3}
	}
}

func (d *amf3Decoder) decodeInteger() (Value, error) {
	u29, err := d.readU29()
	if err != nil {
		return nil, err
	}
	return Integer(signExtend29(u29)), nil
}

func (d *amf3Decoder) decodeDouble() (Value, error) {
	var v float64
	if err := d.readFixed(8, func(buf []byte) {
		v = math.Float64frombits(binary.BigEndian.Uint64(buf))
	}); err != nil {
		return nil, err
	}
	return Double(v), nil
}

// decodeStringValue decodes the AMF3 string payload shared by the String
// marker and every other marker that embeds a raw AMF3 string (trait
// class/property names, Array associative keys): header U29, low bit 0 =
// reference into string_refs, low bit 1 = inline length; length 0 is the
// empty string and is never tabled.
func (d *amf3Decoder) decodeStringValue() (string, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return "", err
	}
	if !isInline {
		return d.tables.string(int(rest))
	}
	length := int(rest)
	if length == 0 {
		return "", nil
	}
	buf, err := d.readBytes(length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	s := string(buf)
	d.tables.addString(s)
	return s, nil
}

func (d *amf3Decoder) decodeXmlDoc() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	buf, err := d.readBytes(int(rest))
	if err != nil {
		return nil, err
	}
	v := XmlDoc(buf)
	d.tables.objects = append(d.tables.objects, &v)
	return &v, nil
}

func (d *amf3Decoder) decodeXml() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	buf, err := d.readBytes(int(rest))
	if err != nil {
		return nil, err
	}
	v := Xml(buf)
	d.tables.objects = append(d.tables.objects, &v)
	return &v, nil
}

func (d *amf3Decoder) decodeByteArray() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	buf, err := d.readBytes(int(rest))
	if err != nil {
		return nil, err
	}
	v := ByteArray(buf)
	d.tables.objects = append(d.tables.objects, &v)
	return &v, nil
}

func (d *amf3Decoder) decodeDate() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	commit := d.tables.reserveObject()
	var millis float64
	if err := d.readFixed(8, func(buf []byte) {
		millis = math.Float64frombits(binary.BigEndian.Uint64(buf))
	}); err != nil {
		return nil, err
	}
	v := Date(epochMillisToTime(millis))
	commit(&v)
	return &v, nil
}

func (d *amf3Decoder) decodeArray() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	length := int(rest)
	if length < 0 || length > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(length); err != nil {
		return nil, err
	}
	arr := NewArray()
	commit := d.tables.reserveObject()
	commit(arr)

	for {
		key, err := d.decodeStringValue()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		arr.Assoc.Set(key, val)
	}

	arr.Dense = make([]Value, length)
	for i := 0; i < length; i++ {
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		arr.Dense[i] = val
	}
	return arr, nil
}

// decodeObject handles the Object marker in full: object reference,
// trait reference, or inline trait; externalizable delegation to the
// registry; sealed values in declared order; dynamic pairs terminated by
// the empty-string key.
func (d *amf3Decoder) decodeObject() (Value, error) {
	u29, err := d.readU29()
	if err != nil {
		return nil, err
	}
	if u29&1 == 0 {
		return d.tables.object(int(u29 >> 1))
	}

	traitsHeader := u29 >> 1
	var trait Trait
	if traitsHeader&1 == 0 {
		trait, err = d.tables.trait(int(traitsHeader >> 1))
		if err != nil {
			return nil, err
		}
	} else {
		externalizable := (traitsHeader>>1)&1 == 1
		dynamic := (traitsHeader>>2)&1 == 1
		sealedCount := int(traitsHeader >> 3)
		// externalizable short-circuits all further trait reading (only
		// the class name follows), so a nonzero sealed count cannot be
		// honored: the header is internally inconsistent.
		if externalizable && sealedCount > 0 {
			return nil, ErrMalformedTrait
		}
		className, err := d.decodeStringValue()
		if err != nil {
			return nil, err
		}
		// Each sealed name takes at least one byte on the wire.
		if sealedCount > d.r.Len() {
			return nil, ErrTruncated
		}
		if err := d.checkAlloc(sealedCount); err != nil {
			return nil, err
		}
		var sealedNames []string
		if !externalizable {
			sealedNames = make([]string, sealedCount)
			for i := 0; i < sealedCount; i++ {
				name, err := d.decodeStringValue()
				if err != nil {
					return nil, err
				}
				sealedNames[i] = name
			}
		}
		trait = Trait{
			ClassName:      className,
			SealedNames:    sealedNames,
			Dynamic:        dynamic,
			Externalizable: externalizable,
		}
		d.tables.addTrait(trait)
	}

	obj := &Object{
		ClassName:      trait.ClassName,
		Externalizable: trait.Externalizable,
	}
	if trait.Dynamic {
		obj.Dynamic = NewOrderedMap()
	}
	commit := d.tables.reserveObject()
	commit(obj)

	if trait.Externalizable {
		reader, ok := lookupExternalizableReader(trait.ClassName)
		if !ok {
			return nil, &ExternalizableNotRegisteredError{ClassName: trait.ClassName}
		}
		val, err := reader(d)
		if err != nil {
			return nil, err
		}
		obj.External = val
		return obj, nil
	}

	obj.Sealed = make([]KV, len(trait.SealedNames))
	for i, name := range trait.SealedNames {
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		obj.Sealed[i] = KV{Name: name, Value: val}
	}

	if trait.Dynamic {
		for {
			key, err := d.decodeStringValue()
			if err != nil {
				return nil, err
			}
			if key == "" {
				break
			}
			val, err := d.decodeValue()
			if err != nil {
				return nil, err
			}
			obj.Dynamic.Set(key, val)
		}
	}

	return obj, nil
}

func (d *amf3Decoder) decodeVectorInt() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	length := int(rest)
	if length < 0 || length*4 > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(length * 4); err != nil {
		return nil, err
	}
	fixedByte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	v := &VectorInt{Fixed: fixedByte != 0}
	commit := d.tables.reserveObject()
	commit(v)
	v.Items = make([]int32, length)
	for i := 0; i < length; i++ {
		buf, err := d.readBytes(4)
		if err != nil {
			return nil, err
		}
		v.Items[i] = int32(binary.BigEndian.Uint32(buf))
	}
	return v, nil
}

func (d *amf3Decoder) decodeVectorUint() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	length := int(rest)
	if length < 0 || length*4 > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(length * 4); err != nil {
		return nil, err
	}
	fixedByte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	v := &VectorUint{Fixed: fixedByte != 0}
	commit := d.tables.reserveObject()
	commit(v)
	v.Items = make([]uint32, length)
	for i := 0; i < length; i++ {
		buf, err := d.readBytes(4)
		if err != nil {
			return nil, err
		}
		v.Items[i] = binary.BigEndian.Uint32(buf)
	}
	return v, nil
}

func (d *amf3Decoder) decodeVectorDouble() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	length := int(rest)
	if length < 0 || length*8 > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(length * 8); err != nil {
		return nil, err
	}
	fixedByte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	v := &VectorDouble{Fixed: fixedByte != 0}
	commit := d.tables.reserveObject()
	commit(v)
	v.Items = make([]float64, length)
	for i := 0; i < length; i++ {
		buf, err := d.readBytes(8)
		if err != nil {
			return nil, err
		}
		v.Items[i] = math.Float64frombits(binary.BigEndian.Uint64(buf))
	}
	return v, nil
}

func (d *amf3Decoder) decodeVectorObject() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	length := int(rest)
	if length < 0 || length > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(length); err != nil {
		return nil, err
	}
	fixedByte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	typeName, err := d.decodeStringValue()
	if err != nil {
		return nil, err
	}
	v := &VectorObject{TypeName: typeName, Fixed: fixedByte != 0}
	commit := d.tables.reserveObject()
	commit(v)
	v.Items = make([]Value, length)
	for i := 0; i < length; i++ {
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		v.Items[i] = val
	}
	return v, nil
}

func (d *amf3Decoder) decodeDictionary() (Value, error) {
	isInline, rest, err := d.readHeaderIndex()
	if err != nil {
		return nil, err
	}
	if !isInline {
		return d.tables.object(int(rest))
	}
	length := int(rest)
	if length < 0 || length*2 > d.r.Len() {
		return nil, ErrTruncated
	}
	if err := d.checkAlloc(length * 2); err != nil {
		return nil, err
	}
	weakByte, err := d.readByte()
	if err != nil {
		return nil, err
	}
	v := &Dictionary{WeakKeys: weakByte != 0}
	commit := d.tables.reserveObject()
	commit(v)
	v.Entries = make([]DictEntry, length)
	for i := 0; i < length; i++ {
		key, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		v.Entries[i] = DictEntry{Key: key, Value: val}
	}
	return v, nil
}
