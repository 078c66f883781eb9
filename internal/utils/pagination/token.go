package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// Cursor marks the last row of a page for keyset pagination. Every listing
// in this module orders by a timestamp column with an id tiebreaker, so the
// cursor carries exactly that pair. Tokens are opaque to callers.
type Cursor struct {
	At time.Time
	ID string
}

// Token serializes the cursor into an opaque base64 token.
func (c Cursor) Token() string {
	raw := c.At.Format(timeFormat) + "|" + c.ID
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Cursor.Token.
func Decode(token string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token: %w", err)
	}
	at, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token: missing field")
	}
	ts, err := time.Parse(timeFormat, at)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token: %w", err)
	}
	return Cursor{At: ts, ID: id}, nil
}
