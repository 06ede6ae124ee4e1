package dialog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draft struct {
	ForemanID int64    `json:"foreman_id"`
	Items     []string `json:"items"`
}

func TestEncodeDecodeSurvivesStorage(t *testing.T) {
	p := Payload{}
	require.NoError(t, Encode(p, "draft", draft{ForemanID: 7, Items: []string{"a", "b"}}))

	// как после чтения из jsonb
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var stored Payload
	require.NoError(t, json.Unmarshal(raw, &stored))

	var d draft
	ok, err := Decode(stored, "draft", &d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 7, d.ForemanID)
	assert.Equal(t, []string{"a", "b"}, d.Items)

	ok, err = Decode(stored, "missing", &d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetters(t *testing.T) {
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"name":"x"}`), &p))

	id, ok := GetInt64(p, "id")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	_, ok = GetInt64(p, "name")
	assert.False(t, ok)

	s, ok := GetString(p, "name")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	c := p.Clone()
	c["id"] = 1
	assert.Equal(t, float64(42), p["id"])
}
