package writeoffs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/form"
)

func TestReasons(t *testing.T) {
	require.Len(t, Reasons, 8)
	assert.Equal(t, "Брак", ReasonDefect.String())
	assert.Equal(t, "Прочее", ReasonOther.String())
	assert.Equal(t, "—", Reason(0).String())
}

func TestCreateValidation(t *testing.T) {
	fe := form.Validate(CreateRequest{MaterialID: 1, Amount: 2, ReasonType: 9})
	assert.Contains(t, fe, "reason_type")
	assert.Nil(t, form.Validate(CreateRequest{MaterialID: 1, Amount: 2, ReasonType: ReasonTheft}))
}

func TestListEmptyPageBeyondTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/write-offs/list", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"result":[],"pages":2}`))
	}))
	defer srv.Close()

	page, err := NewRepo(api.New(srv.URL, "")).List(context.Background(), 9, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Result)
	assert.Equal(t, 2, page.Pages)
}
