package remoting

import "fmt"

// ErrTruncated means the envelope ended mid-structure.
var ErrTruncated = fmt.Errorf("remoting: truncated input")

// ErrAllocCeilingExceeded is returned when an encoded header or message
// body, once measured, is longer than MaxAlloc.
var ErrAllocCeilingExceeded = fmt.Errorf("remoting: encode exceeded allocation ceiling")
