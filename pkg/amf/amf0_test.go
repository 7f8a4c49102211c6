package amf

import (
	"bytes"
	"strconv"
	"testing"
)

func roundTripAMF0(t *testing.T, v Value) Value {
	t.Helper()
	data, err := EncodeAMF0(v)
	if err != nil {
		t.Fatalf("EncodeAMF0: %v", err)
	}
	got, err := DecodeAMF0(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAMF0: %v", err)
	}
	return got
}

func TestAMF0NumberRoundTrip(t *testing.T) {
	got := roundTripAMF0(t, Double(3.5))
	d, ok := got.(Double)
	if !ok || float64(d) != 3.5 {
		t.Fatalf("got %#v", got)
	}
}

func TestAMF0BooleanRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		got := roundTripAMF0(t, Bool(b))
		v, ok := got.(Bool)
		if !ok || bool(v) != b {
			t.Fatalf("got %#v", got)
		}
	}
}

func TestAMF0StringRoundTrip(t *testing.T) {
	got := roundTripAMF0(t, String("hello"))
	s, ok := got.(String)
	if !ok || string(s) != "hello" {
		t.Fatalf("got %#v", got)
	}
}

func TestAMF0StrictArrayRoundTrip(t *testing.T) {
	arr := NewArray()
	arr.Dense = []Value{Double(1), Double(2), Double(3)}
	got := roundTripAMF0(t, arr)
	outArr, ok := got.(*Array)
	if !ok || len(outArr.Dense) != 3 {
		t.Fatalf("got %#v", got)
	}
}

func TestAMF0EcmaArrayRoundTrip(t *testing.T) {
	arr := NewArray()
	arr.Assoc.Set("foo", String("bar"))
	got := roundTripAMF0(t, arr)
	outArr, ok := got.(*Array)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	val, ok := outArr.Assoc.Get("foo")
	if !ok {
		t.Fatal("missing foo")
	}
	if s, ok := val.(String); !ok || s != "bar" {
		t.Errorf("got %#v", val)
	}
}

func TestAMF0ObjectRoundTrip(t *testing.T) {
	obj := NewObject()
	obj.Dynamic.Set("x", Double(1))
	obj.Dynamic.Set("y", Double(2))
	got := roundTripAMF0(t, obj)
	outObj, ok := got.(*Object)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	val, ok := outObj.Dynamic.Get("x")
	if !ok {
		t.Fatal("missing x")
	}
	if d, ok := val.(Double); !ok || float64(d) != 1 {
		t.Errorf("got %#v", val)
	}
}

func TestAMF0TypedObjectRoundTrip(t *testing.T) {
	obj := NewObject()
	obj.ClassName = "com.example.Thing"
	obj.Dynamic.Set("a", Double(1))
	got := roundTripAMF0(t, obj)
	outObj, ok := got.(*Object)
	if !ok || outObj.ClassName != "com.example.Thing" {
		t.Fatalf("got %#v", got)
	}
}

func TestAMF0ObjectReferenceSharedIdentity(t *testing.T) {
	shared := NewObject()
	shared.Dynamic.Set("v", Double(1))
	arr := NewArray()
	arr.Dense = []Value{shared, shared}

	data, err := EncodeAMF0(arr)
	if err != nil {
		t.Fatalf("EncodeAMF0: %v", err)
	}
	got, err := DecodeAMF0(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAMF0: %v", err)
	}
	outArr := got.(*Array)
	if outArr.Dense[0].(*Object) != outArr.Dense[1].(*Object) {
		t.Error("expected shared reference to decode to the same pointer")
	}
}

func TestAMF0AVMPlusBridge(t *testing.T) {
	inner := NewObject()
	inner.Dynamic.Set("foo", String("bar"))
	wrapped := &AVM3{Value: inner}

	data, err := EncodeAMF0(wrapped)
	if err != nil {
		t.Fatalf("EncodeAMF0: %v", err)
	}
	if data[0] != amf0AvmPlus {
		t.Fatalf("expected leading AVMplusObject marker, got %#x", data[0])
	}
	got, err := DecodeAMF0(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAMF0: %v", err)
	}
	outObj, ok := got.(*Object)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	val, ok := outObj.Dynamic.Get("foo")
	if !ok {
		t.Fatal("missing foo")
	}
	if s, ok := val.(String); !ok || s != "bar" {
		t.Errorf("got %#v", val)
	}
}

func TestAMF0ByteArrayAutoBridgesToAMF3(t *testing.T) {
	b := ByteArray([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	data, err := EncodeAMF0(&b)
	if err != nil {
		t.Fatalf("EncodeAMF0: %v", err)
	}
	if data[0] != amf0AvmPlus {
		t.Fatalf("expected leading AVMplusObject marker, got %#x", data[0])
	}
	got, err := DecodeAMF0(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAMF0: %v", err)
	}
	outBA, ok := got.(*ByteArray)
	if !ok || !bytes.Equal(*outBA, b) {
		t.Fatalf("got %#v", got)
	}
}

func TestAMF0MixedArrayKeepsDenseItems(t *testing.T) {
	arr := NewArray()
	arr.Dense = []Value{Double(10), Double(20)}
	arr.Assoc.Set("name", String("mixed"))
	got := roundTripAMF0(t, arr)
	outArr, ok := got.(*Array)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	// AMF0's ECMA array is object-shaped, so dense items come back as
	// their index strings.
	for i, want := range []float64{10, 20} {
		val, ok := outArr.Assoc.Get(strconv.Itoa(i))
		if !ok {
			t.Fatalf("missing index key %d", i)
		}
		if d, ok := val.(Double); !ok || float64(d) != want {
			t.Errorf("index %d: got %#v", i, val)
		}
	}
	val, ok := outArr.Assoc.Get("name")
	if !ok {
		t.Fatal("missing name")
	}
	if s, ok := val.(String); !ok || s != "mixed" {
		t.Errorf("got %#v", val)
	}
}

func TestAMF0ObjectSelfReference(t *testing.T) {
	// An object whose own "self" property references its own ref-table
	// slot (index 0) must resolve to the same pointer, not a
	// BadReferenceError — the slot has to exist before the property
	// loop that recurses into it runs.
	var data []byte
	data = append(data, amf0Object)
	data = append(data, 0x00, 0x04) // key length 4
	data = append(data, "self"...)
	data = append(data, amf0Reference)
	data = append(data, 0x00, 0x00) // reference index 0
	data = append(data, 0x00, 0x00) // empty key
	data = append(data, amf0ObjectEnd)

	got, err := DecodeAMF0(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAMF0: %v", err)
	}
	obj, ok := got.(*Object)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	self, ok := obj.Dynamic.Get("self")
	if !ok {
		t.Fatal("missing self")
	}
	if self.(*Object) != obj {
		t.Error("expected self-reference to resolve to the same pointer")
	}
}

func TestAMF0UnknownMarker(t *testing.T) {
	_, err := DecodeAMF0(bytes.NewReader([]byte{0xFE}))
	if _, ok := err.(*UnknownMarkerError); !ok {
		t.Fatalf("expected *UnknownMarkerError, got %v (%T)", err, err)
	}
}

func TestAMF0Truncated(t *testing.T) {
	_, err := DecodeAMF0(bytes.NewReader([]byte{amf0Number, 0x00}))
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
