package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPointer(t *testing.T) {
	p := ToPointer(int64(57))
	assert.Equal(t, int64(57), *p)
}

func TestDeref(t *testing.T) {
	var missing *string
	assert.Equal(t, "", Deref(missing))
	assert.Equal(t, "x", Deref(ToPointer("x")))
	assert.Equal(t, 0, Deref[int](nil))
}
