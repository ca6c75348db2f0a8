//go:build !jemalloc || !cgo

package jemalloc

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestUnavailable(t *testing.T) {
	e, err := New()
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, Available)
}
