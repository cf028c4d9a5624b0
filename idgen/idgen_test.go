package idgen

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenIDIsUnique(t *testing.T) {
	seen := make(map[int64]struct{}, 1000)
	for range 1000 {
		id := GenID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestGenIDString(t *testing.T) {
	id, err := strconv.ParseInt(GenIDString(), 10, 64)
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestNewSnowflakeGeneratorRejectsMachineID(t *testing.T) {
	_, err := NewSnowflakeGenerator(4096)
	assert.ErrorIs(t, err, ErrCreateNode)
}
