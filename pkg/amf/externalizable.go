package amf

import "sync"

// ExternalizableDecoder is the handle an ExternalizableReader receives,
// positioned immediately after the trait header. AMF3 gives
// externalizable bodies no generic length prefix, so the reader must know
// its own class's wire format and consume exactly that many values.
type ExternalizableDecoder interface {
	DecodeValue() (Value, error)
}

// ExternalizableEncoder is the handle an ExternalizableWriter receives.
type ExternalizableEncoder interface {
	EncodeValue(Value) error
}

// ExternalizableReader decodes one externalizable object's body.
type ExternalizableReader func(d ExternalizableDecoder) (Value, error)

// ExternalizableWriter encodes one externalizable object's body.
type ExternalizableWriter func(w ExternalizableEncoder, v Value) error

type externalizableEntry struct {
	reader ExternalizableReader
	writer ExternalizableWriter
}

// externalizables is a process-wide read-mostly mapping: callers
// register classes before decoding and must not mutate the registry
// concurrently with active decodes.
var (
	externalizablesMu sync.RWMutex
	externalizables   = make(map[string]externalizableEntry)
)

// Register associates a class name with the reader/writer pair that
// handles its externalizable wire format. Registering the same class
// name twice replaces the previous entry.
func Register(className string, reader ExternalizableReader, writer ExternalizableWriter) {
	externalizablesMu.Lock()
	defer externalizablesMu.Unlock()
	externalizables[className] = externalizableEntry{reader: reader, writer: writer}
}

// Unregister removes a class name. Primarily useful in tests.
func Unregister(className string) {
	externalizablesMu.Lock()
	defer externalizablesMu.Unlock()
	delete(externalizables, className)
}

func lookupExternalizableReader(className string) (ExternalizableReader, bool) {
	externalizablesMu.RLock()
	defer externalizablesMu.RUnlock()
	entry, ok := externalizables[className]
	if !ok || entry.reader == nil {
		return nil, false
	}
	return entry.reader, true
}

func lookupExternalizableWriter(className string) (ExternalizableWriter, bool) {
	externalizablesMu.RLock()
	defer externalizablesMu.RUnlock()
	entry, ok := externalizables[className]
	if !ok || entry.writer == nil {
		return nil, false
	}
	return entry.writer, true
}
