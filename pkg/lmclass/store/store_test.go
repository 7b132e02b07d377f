package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDSortable(t *testing.T) {
	now := time.Now()
	a := NewRunID(now)
	b := NewRunID(now)
	c := NewRunID(now.Add(time.Second))

	require.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}
