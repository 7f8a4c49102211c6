package amf

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// These mirror the worked wire-format examples: encode must produce the
// exact bytes shown, and decode of those same bytes must produce the
// matching value tree.

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

func TestScenarioAMF3Integer21(t *testing.T) {
	want := mustHex(t, "0415")
	got, err := EncodeAMF3(Integer(21))
	if err != nil {
		t.Fatalf("EncodeAMF3: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
	v, err := DecodeAMF3(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("DecodeAMF3: %v", err)
	}
	if i, ok := v.(Integer); !ok || i != 21 {
		t.Fatalf("got %#v", v)
	}
}

func TestScenarioAMF3Integer16384(t *testing.T) {
	want := mustHex(t, "04818000")
	got, err := EncodeAMF3(Integer(16384))
	if err != nil {
		t.Fatalf("EncodeAMF3: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
	v, err := DecodeAMF3(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("DecodeAMF3: %v", err)
	}
	if i, ok := v.(Integer); !ok || i != 16384 {
		t.Fatalf("got %#v", v)
	}
}

func TestScenarioAMF3StringHello(t *testing.T) {
	want := mustHex(t, "060b68656c6c6f")
	got, err := EncodeAMF3(String("hello"))
	if err != nil {
		t.Fatalf("EncodeAMF3: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
	v, err := DecodeAMF3(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("DecodeAMF3: %v", err)
	}
	if s, ok := v.(String); !ok || s != "hello" {
		t.Fatalf("got %#v", v)
	}
}

func TestScenarioAMF3DenseArray123(t *testing.T) {
	want := mustHex(t, "090701040104020403")
	arr := NewArray()
	arr.Dense = []Value{Integer(1), Integer(2), Integer(3)}
	got, err := EncodeAMF3(arr)
	if err != nil {
		t.Fatalf("EncodeAMF3: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
	v, err := DecodeAMF3(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("DecodeAMF3: %v", err)
	}
	outArr, ok := v.(*Array)
	if !ok || len(outArr.Dense) != 3 {
		t.Fatalf("got %#v", v)
	}
	for i, want := range []int32{1, 2, 3} {
		n, ok := outArr.Dense[i].(Integer)
		if !ok || int32(n) != want {
			t.Errorf("index %d: got %#v", i, outArr.Dense[i])
		}
	}
}

func TestScenarioAMF3DynamicObjectFooBar(t *testing.T) {
	want := mustHex(t, "0a0b0107666f6f060762617201")
	obj := NewObject()
	obj.Dynamic.Set("foo", String("bar"))
	got, err := EncodeAMF3(obj)
	if err != nil {
		t.Fatalf("EncodeAMF3: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
	v, err := DecodeAMF3(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("DecodeAMF3: %v", err)
	}
	outObj, ok := v.(*Object)
	if !ok || outObj.Dynamic == nil {
		t.Fatalf("got %#v", v)
	}
	val, ok := outObj.Dynamic.Get("foo")
	if !ok {
		t.Fatal("missing foo")
	}
	if s, ok := val.(String); !ok || s != "bar" {
		t.Errorf("got %#v", val)
	}
}
