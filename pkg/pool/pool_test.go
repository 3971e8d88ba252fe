package pool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuilderIsEmpty(t *testing.T) {
	b := GetBuilder()
	b.WriteString("leftover")
	PutBuilder(b)

	b2 := GetBuilder()
	defer PutBuilder(b2)
	assert.Zero(t, b2.Len())
}

func TestPutBuilderDropsOversized(t *testing.T) {
	b := GetBuilder()
	b.WriteString(strings.Repeat("x", maxBuilderCap+1))
	// Must not panic; the builder is simply discarded.
	PutBuilder(b)
	PutBuilder(nil)
}

func TestGetStringsIsEmpty(t *testing.T) {
	s := GetStrings()
	*s = append(*s, "a", "b")
	PutStrings(s)

	s2 := GetStrings()
	defer PutStrings(s2)
	assert.Empty(t, *s2)
}
