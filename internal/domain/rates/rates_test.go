package rates

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/form"
)

func TestGetAndSet(t *testing.T) {
	var posted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dollar-rate":
			_, _ = w.Write([]byte(`{"dollar_rate":"12650.00","updated_at":"2024-05-01"}`))
		case "/api/dollar-rate/update":
			assert.Equal(t, http.MethodPost, r.Method)
			b, _ := io.ReadAll(r.Body)
			posted = string(b)
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	}))
	defer srv.Close()
	repo := NewRepo(api.New(srv.URL, ""))
	ctx := context.Background()

	cur, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12650", cur.DollarRate.String())

	d, err := form.Decimal("12 700,5")
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, d))
	assert.JSONEq(t, `{"dollar_rate":12700.5}`, posted)
}
