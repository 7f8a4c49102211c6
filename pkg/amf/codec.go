package amf

import "bytes"

// ObjectEncoding selects which wire format Decode/Encode speak at the
// top level.
type ObjectEncoding int

const (
	// ObjectEncodingAMF0 decodes/encodes plain AMF0, honoring AVMplusObject
	// crossings into AMF3 exactly as encountered.
	ObjectEncodingAMF0 ObjectEncoding = 0
	// ObjectEncodingAMF3 decodes/encodes a bare AMF3 value with no AMF0
	// envelope at all.
	ObjectEncodingAMF3 ObjectEncoding = 3
	// ObjectEncodingAuto decodes starting in AMF0 and lets AVMplusObject
	// decide when to switch; it has no meaning on encode.
	ObjectEncodingAuto ObjectEncoding = -1
)

// DefaultMaxAlloc is the hard ceiling a single Decode call will allocate
// for any one length-prefixed field, and the largest finished output
// Encode accepts.
const DefaultMaxAlloc = Size16M

// Options configures a top-level Decode or Encode call.
type Options struct {
	ObjectEncoding ObjectEncoding
	// MaxAlloc bounds any single length-prefixed allocation. Zero means
	// DefaultMaxAlloc.
	MaxAlloc int
	// Buffer, when non-nil, becomes the encode output's initial backing
	// storage. The writer still grows past it as needed; the returned
	// slice aliases Buffer only if the output fit.
	Buffer []byte
	// SizeHint pre-grows the encode buffer to avoid regrowth when the
	// caller knows the output size in advance. Decode ignores it.
	SizeHint int
}

// DefaultOptions returns the codec's default settings: AMF0 with AVMPlus
// bridging, 16 MiB allocation ceiling.
func DefaultOptions() Options {
	return Options{ObjectEncoding: ObjectEncodingAuto, MaxAlloc: DefaultMaxAlloc}
}

func (o Options) maxAlloc() int {
	if o.MaxAlloc <= 0 {
		return DefaultMaxAlloc
	}
	return o.MaxAlloc
}

// Decode reads a single value from data per opts.ObjectEncoding, and
// returns the value along with the number of bytes consumed.
func Decode(data []byte, opts Options) (Value, int, error) {
	r := bytes.NewReader(data)
	var (
		v   Value
		err error
	)
	maxAlloc := opts.maxAlloc()
	switch opts.ObjectEncoding {
	case ObjectEncodingAMF3:
		v, err = DecodeAMF3WithLimit(r, maxAlloc)
	case ObjectEncodingAMF0, ObjectEncodingAuto:
		v, err = DecodeAMF0WithLimit(r, maxAlloc)
	default:
		v, err = DecodeAMF0WithLimit(r, maxAlloc)
	}
	if err != nil {
		return nil, 0, err
	}
	consumed := len(data) - r.Len()
	return v, consumed, nil
}

// Encode writes v per opts.ObjectEncoding into a buffer that grows as
// needed, then rejects the result if it exceeds opts.maxAlloc(),
// mirroring the Remoting packet encoder's post-measure ceiling check.
func Encode(v Value, opts Options) ([]byte, error) {
	var buf *bytes.Buffer
	if opts.Buffer != nil {
		buf = bytes.NewBuffer(opts.Buffer[:0])
	} else {
		buf = new(bytes.Buffer)
	}
	if opts.SizeHint > 0 {
		buf.Grow(opts.SizeHint)
	}

	var err error
	switch opts.ObjectEncoding {
	case ObjectEncodingAMF3:
		err = EncodeAMF3To(buf, v)
	default:
		err = EncodeAMF0To(buf, v)
	}
	if err != nil {
		return nil, err
	}
	if buf.Len() > opts.maxAlloc() {
		return nil, ErrOutOfRange
	}
	return buf.Bytes(), nil
}
