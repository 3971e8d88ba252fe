// Package pool provides object pooling to reduce GC pressure
package pool

import (
	"strings"
	"sync"
)

// maxBuilderCap keeps oversized builders from pinning memory in the pool.
const maxBuilderCap = 64 << 10

// BuilderPool pools strings.Builder for reply formatting
var BuilderPool = sync.Pool{
	New: func() interface{} {
		return new(strings.Builder)
	},
}

// StringSlicePool pools []string
var StringSlicePool = sync.Pool{
	New: func() interface{} {
		s := make([]string, 0, 16)
		return &s
	},
}

// GetBuilder gets an empty builder from pool
func GetBuilder() *strings.Builder {
	b := BuilderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

// PutBuilder returns a builder to pool
func PutBuilder(b *strings.Builder) {
	if b == nil || b.Cap() > maxBuilderCap {
		return
	}
	BuilderPool.Put(b)
}

// GetStrings gets an empty string slice from pool
func GetStrings() *[]string {
	s := StringSlicePool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// PutStrings returns a string slice to pool
func PutStrings(s *[]string) {
	if s == nil {
		return
	}
	clear(*s)
	StringSlicePool.Put(s)
}
