package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdBothSeparators(t *testing.T) {
	colon, err := ParseId("12:34")
	require.NoError(t, err)
	dash, err := ParseId("12-34")
	require.NoError(t, err)
	assert.Equal(t, colon, dash)
	assert.Equal(t, Id{Session: 12, Local: 34}, colon)
}

func TestIdRoundTripColonForm(t *testing.T) {
	for _, s := range []string{"1:1", "0:0", "4294967295:1"} {
		id, err := ParseId(s)
		require.NoError(t, err)
		assert.Equal(t, s, id.String())
	}
}

func TestParseIdMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "1:", ":1", "1:2:3"} {
		_, err := ParseId(s)
		assert.Error(t, err, s)
	}
}
