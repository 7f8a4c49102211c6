package amf

import "sync"

// Tiered scratch-buffer sizes, adapted from the RTMP transport layer this
// codec was extracted from. Size16M is the codec's own addition: it
// matches the 16 MiB allocation ceiling a Decode call enforces by
// default (see Options.MaxAlloc in codec.go).
const (
	Size32  = 1 << 5  // 32 bytes
	Size512 = 1 << 9  // 512 bytes
	Size4K  = 1 << 12 // 4 KB
	Size16K = 1 << 14 // 16 KB
	Size64K = 1 << 16 // 64 KB
	Size1M  = 1 << 20 // 1 MB
	Size4M  = 1 << 22 // 4 MB
	Size16M = 1 << 24 // 16 MB
)

var (
	pool32  = sync.Pool{New: func() any { return make([]byte, Size32) }}
	pool512 = sync.Pool{New: func() any { return make([]byte, Size512) }}
	pool4K  = sync.Pool{New: func() any { return make([]byte, Size4K) }}
	pool16K = sync.Pool{New: func() any { return make([]byte, Size16K) }}
	pool64K = sync.Pool{New: func() any { return make([]byte, Size64K) }}
	pool1M  = sync.Pool{New: func() any { return make([]byte, Size1M) }}
	pool4M  = sync.Pool{New: func() any { return make([]byte, Size4M) }}
	pool16M = sync.Pool{New: func() any { return make([]byte, Size16M) }}
)

// getBuf returns a scratch buffer of at least size bytes, sliced to
// exactly size. Buffers above the largest tier are allocated directly
// and never pooled. There is no refcounted wrapper here (unlike the
// RTMP transport's Buffer type) — the codec is synchronous and
// single-threaded per call, so a scratch buffer never outlives the
// call that borrowed it.
func getBuf(size int) []byte {
	switch {
	case size <= Size32:
		return pool32.Get().([]byte)[:size]
	case size <= Size512:
		return pool512.Get().([]byte)[:size]
	case size <= Size4K:
		return pool4K.Get().([]byte)[:size]
	case size <= Size16K:
		return pool16K.Get().([]byte)[:size]
	case size <= Size64K:
		return pool64K.Get().([]byte)[:size]
	case size <= Size1M:
		return pool1M.Get().([]byte)[:size]
	case size <= Size4M:
		return pool4M.Get().([]byte)[:size]
	case size <= Size16M:
		return pool16M.Get().([]byte)[:size]
	default:
		return make([]byte, size)
	}
}

func putBuf(buf []byte) {
	if buf == nil {
		return
	}
	switch cap(buf) {
	case Size32:
		pool32.Put(buf[:cap(buf)])
	case Size512:
		pool512.Put(buf[:cap(buf)])
	case Size4K:
		pool4K.Put(buf[:cap(buf)])
	case Size16K:
		pool16K.Put(buf[:cap(buf)])
	case Size64K:
		pool64K.Put(buf[:cap(buf)])
	case Size1M:
		pool1M.Put(buf[:cap(buf)])
	case Size4M:
		pool4M.Put(buf[:cap(buf)])
	case Size16M:
		pool16M.Put(buf[:cap(buf)])
	default:
	}
}
