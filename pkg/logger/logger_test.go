package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, encoding := range []string{"json", "console"} {
		l, err := New("debug", encoding)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}

	_, err := New("loud", "json")
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	base := NewNop()
	child := base.With(StringField("session_id", "abc"))

	assert.Same(t, base, base.FromContext(context.Background()))
	assert.Same(t, child, base.FromContext(NewContext(context.Background(), child)))
}
