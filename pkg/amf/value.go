package amf

import "time"

// Value is the closed sum type the codec trades in. The encoder matches on
// concrete type via a type switch (see encodeValue); there is no attribute
// sniffing.
//
// Complex values that can participate in AMF3 reference sharing (Array,
// Object, Dictionary, the Vector family, ByteArray, Xml, XmlDoc, Date) are
// always held as pointers so that encode-side identity lookup has
// something to key on; a value received twice by the same pointer must
// round-trip as a shared reference, not as two independently-inlined
// copies.
type Value interface {
	isValue()
}

// Undefined is the AMF "undefined" value, distinct from Null.
type Undefined struct{}

func (Undefined) isValue() {}

// Null is the AMF "null" value.
type Null struct{}

func (Null) isValue() {}

// Bool is an AMF boolean.
type Bool bool

func (Bool) isValue() {}

// Integer is a 29-bit signed AMF3 integer, range [-2^28, 2^28-1].
type Integer int32

func (Integer) isValue() {}

// Double is an IEEE-754 binary64 AMF number.
type Double float64

func (Double) isValue() {}

// String is AMF3 string content. The empty string is legal and is never
// reference-tabled.
type String string

func (String) isValue() {}

// Date is epoch milliseconds UTC; no timezone component survives a
// round-trip (AMF3 carries none, AMF0's timezone field is reserved-zero).
type Date time.Time

func (*Date) isValue() {}

// ByteArray is an opaque octet buffer (AMF3 marker 0x0C, AMF0 has no
// equivalent outside the AVMPlus bridge).
type ByteArray []byte

func (*ByteArray) isValue() {}

// XmlDoc is the legacy AMF0/AMF3 "XMLDocument" marker payload.
type XmlDoc string

func (*XmlDoc) isValue() {}

// Xml is the AMF3 "XML" (E4X) marker payload. Same payload shape as
// XmlDoc, distinct marker.
type Xml string

func (*Xml) isValue() {}

// KV is one dynamic or sealed property: a name paired with a value.
type KV struct {
	Name  string
	Value Value
}

// Array holds AMF3's split dense/associative array shape. Assoc
// preserves insertion order.
type Array struct {
	Dense []Value
	Assoc *OrderedMap
}

func (*Array) isValue() {}

// NewArray returns an empty Array ready for use.
func NewArray() *Array {
	return &Array{Assoc: NewOrderedMap()}
}

// Object is an AMF3 object: a trait-described shape plus dynamic
// properties. Sealed values are positional, following the trait's
// declared property-name order; Dynamic is only populated when the
// trait says dynamic=true.
type Object struct {
	ClassName      string
	Sealed         []KV
	Dynamic        *OrderedMap
	Externalizable bool
	// External is the value a registered ExternalizableReader produced on
	// decode, or the value a registered ExternalizableWriter will consume
	// on encode. AMF3 gives externalizable bodies no generic length
	// prefix — only the class-specific reader/writer pair knows how to
	// walk the bytes, so decode always requires a registry hit; Payload
	// exists only for the encode-side shortcut below.
	External Value
	// Payload, when set and no writer is registered for ClassName, is
	// written verbatim as the externalizable body on encode. This lets a
	// caller re-emit an externalizable object it holds pre-serialized
	// bytes for without registering a writer.
	Payload []byte
}

func (*Object) isValue() {}

// NewObject returns an empty anonymous Object ready for use.
func NewObject() *Object {
	return &Object{Dynamic: NewOrderedMap()}
}

// VectorInt is AMF3 marker 0x0D.
type VectorInt struct {
	Fixed bool
	Items []int32
}

func (*VectorInt) isValue() {}

// VectorUint is AMF3 marker 0x0E.
type VectorUint struct {
	Fixed bool
	Items []uint32
}

func (*VectorUint) isValue() {}

// VectorDouble is AMF3 marker 0x0F.
type VectorDouble struct {
	Fixed bool
	Items []float64
}

func (*VectorDouble) isValue() {}

// VectorObject is AMF3 marker 0x10.
type VectorObject struct {
	TypeName string
	Fixed    bool
	Items    []Value
}

func (*VectorObject) isValue() {}

// DictEntry is one key/value pair of a Dictionary.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dictionary is AMF3 marker 0x11. WeakKeys is carried through but not
// otherwise interpreted — Go has no analog to Flash's weak-reference
// dictionary semantics.
type Dictionary struct {
	WeakKeys bool
	Entries  []DictEntry
}

func (*Dictionary) isValue() {}

// AVM3 wraps a value to mean "encode this as AMF3 even though the
// surrounding context is AMF0": the AMF0 encoder emits the AVMplusObject
// marker (0x11) and then hands Value to a fresh AMF3 encoder. Decode
// never produces this wrapper — crossing the AVMplusObject marker on
// read simply returns the AMF3 value itself.
type AVM3 struct {
	Value Value
}

func (*AVM3) isValue() {}

// Trait is the class-identity descriptor for an Object: class name,
// sealed property name order, and the dynamic/externalizable flags. Two
// traits are structurally equal iff all four fields match; the trait
// reference table, however, indexes by emission order, never by this
// equality.
type Trait struct {
	ClassName      string
	SealedNames    []string
	Dynamic        bool
	Externalizable bool
}

// Equal reports structural equality, used by the encoder to decide
// whether an object's trait can reuse a previously emitted trait_refs
// entry.
func (t Trait) Equal(o Trait) bool {
	if t.ClassName != o.ClassName || t.Dynamic != o.Dynamic || t.Externalizable != o.Externalizable {
		return false
	}
	if len(t.SealedNames) != len(o.SealedNames) {
		return false
	}
	for i, n := range t.SealedNames {
		if n != o.SealedNames[i] {
			return false
		}
	}
	return true
}
