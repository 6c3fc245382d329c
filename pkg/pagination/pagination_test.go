package pagination

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-4))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 5, 1, 8, 30, 0, 123456789, time.FixedZone("CAT", 2*3600)), ID: uuid.New()}
	encoded := EncodeCursor(in)
	assert.Equal(t, encoded, url.QueryEscape(encoded))

	out, err := ParseCursor(encoded)
	require.NoError(t, err)
	assert.True(t, out.CreatedAt.Equal(in.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorErrors(t *testing.T) {
	out, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, out)

	for _, raw := range []string{"%%%", "bm8tcGlwZQ", "bm90LWEtdGltZXxpZA"} {
		_, err := ParseCursor(raw)
		assert.Error(t, err, raw)
	}
}

func TestPage(t *testing.T) {
	type row struct {
		at time.Time
		id uuid.UUID
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{base.Add(3), uuid.New()}, {base.Add(2), uuid.New()}, {base.Add(1), uuid.New()}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Page(rows, 2, cursorOf)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	cur, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, cur.ID)

	page, next = Page(rows[:2], 2, cursorOf)
	assert.Len(t, page, 2)
	assert.Empty(t, next)
}
