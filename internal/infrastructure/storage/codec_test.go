package storage

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

func TestCodecRoundTrip(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)
	defer c.Close()

	rec := sampleRecord("u")
	payload, err := c.Encode(rec)
	require.NoError(t, err)

	got, err := c.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestCodecCompresses(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)
	defer c.Close()

	rec := &types.LayoutRecord{UserID: "u"}
	for i := 0; i < 50; i++ {
		rec.Cards = append(rec.Cards, sampleRecord("u").Cards...)
	}
	plain, err := json.Marshal(rec)
	require.NoError(t, err)

	payload, err := c.Encode(rec)
	require.NoError(t, err)
	assert.Less(t, len(payload), len(plain)/4)
	assert.False(t, bytes.HasPrefix(payload, []byte("{")))
}

func TestCodecRejectsGarbage(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Decode([]byte("definitely not zstd"))
	assert.Error(t, err)
}
