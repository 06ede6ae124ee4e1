package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFormats(t *testing.T) {
	d := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-07", FormatCRUD(d))
	assert.Equal(t, "07-03-2025", FormatExcel(d))
	assert.Equal(t, "07.03.2025", FormatUser(d))
}

func TestParseUserDate(t *testing.T) {
	want := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"07.03.2025", "07-03-2025", "2025-03-07", " 07.03.2025 "} {
		got, err := ParseUserDate(in, time.UTC)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseUserDate("7 марта", time.UTC)
	assert.ErrorIs(t, err, ErrBadDate)
	_, err = ParseUserDate("31.02.2025", time.UTC)
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestHumanDate(t *testing.T) {
	assert.Equal(t, "12.03.2025", HumanDate("2025-03-12T10:15:00Z"))
	assert.Equal(t, "12.03.2025", HumanDate("2025-03-12 10:15:00"))
	assert.Equal(t, "12.03.2025", HumanDate("2025-03-12"))
	assert.Equal(t, "—", HumanDate(""))
	assert.Equal(t, "вчера", HumanDate("вчера"))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
		SignedString([]byte("k"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = TokenExpiry(noExp)
	assert.False(t, ok)
}

func TestUserMessageNil(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
}
