package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapLeavesSentinelUntouched(t *testing.T) {
	sentinel := New("io failure")
	cause1 := fmt.Errorf("disk gone")
	cause2 := fmt.Errorf("permission denied")

	w1 := sentinel.Wrap(cause1)
	w2 := sentinel.Wrap(cause2)

	require.Nil(t, sentinel.Unwrap())
	assert.Equal(t, "io failure", sentinel.Error())
	assert.Equal(t, "io failure: disk gone", w1.Error())
	assert.Equal(t, "io failure: permission denied", w2.Error())

	assert.True(t, Is(w1, sentinel))
	assert.True(t, Is(w2, sentinel))
	assert.True(t, Is(w1, cause1))
	assert.False(t, Is(w1, cause2))
	assert.False(t, Is(w1, New("io failure")))
}

func TestWrapThroughFmt(t *testing.T) {
	sentinel := New("integrity")
	err := fmt.Errorf("unit abc: %w", sentinel.Wrap(New("size mismatch")))

	assert.True(t, Is(err, sentinel))

	var target *Error
	require.True(t, As(err, &target))
	assert.Equal(t, "integrity: size mismatch", target.Error())
}

func TestDerivedSentinels(t *testing.T) {
	family := New("integrity error")
	size := family.Wrap(New("size changed"))
	checksum := family.Wrap(New("checksum mismatch"))

	err := size.Wrap(fmt.Errorf("expected 10, got 12"))
	assert.Equal(t, "integrity error: size changed: expected 10, got 12", err.Error())
	assert.True(t, Is(err, size))
	assert.True(t, Is(err, family))
	assert.False(t, Is(err, checksum))
	assert.False(t, Is(size, checksum))
}
