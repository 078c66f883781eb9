package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 15, 14, 30, 45, 123456789, time.UTC)
	cur := Cursor{At: at, ID: "2026-MAN-1"}

	token := cur.Token()
	assert.NotEmpty(t, token)

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.True(t, at.Equal(decoded.At), "timestamp should survive the round trip")
	assert.Equal(t, "2026-MAN-1", decoded.ID)
}

func TestCursorRoundTrip_IDWithSeparator(t *testing.T) {
	// Only the first separator delimits; ids may contain more.
	cur := Cursor{At: time.Now().UTC(), ID: "a|b|c"}

	decoded, err := Decode(cur.Token())
	require.NoError(t, err)
	assert.Equal(t, "a|b|c", decoded.ID)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("this is not base64!")
	assert.Error(t, err)

	noSeparator := base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z"))
	_, err = Decode(noSeparator)
	assert.Error(t, err)

	badTime := base64.StdEncoding.EncodeToString([]byte("notatime|some-id"))
	_, err = Decode(badTime)
	assert.Error(t, err)
}
