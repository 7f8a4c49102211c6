package amf

import "testing"

func TestBufPoolSizes(t *testing.T) {
	sizes := []int{32, 512, 4096, 16384, 65536, 1048576, 4194304, 16777216}
	for _, size := range sizes {
		buf := getBuf(size)
		if len(buf) != size {
			t.Errorf("size %d: got len %d", size, len(buf))
		}
		putBuf(buf)
	}
}

func TestBufPoolOversized(t *testing.T) {
	size := Size16M + 1024
	buf := getBuf(size)
	if len(buf) != size {
		t.Errorf("got len %d, want %d", len(buf), size)
	}
	putBuf(buf) // must not panic even though it's not pool-backed
}
