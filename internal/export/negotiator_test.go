package export

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeProber struct {
	mu        sync.Mutex
	counts    []url.Values
	downloads []url.Values
	total     int
	err       error
}

func (f *fakeProber) Count(_ context.Context, res string, q url.Values) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, q)
	return f.total, f.err
}

func (f *fakeProber) Download(_ context.Context, res string, q url.Values) (api.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, q)
	return api.File{Name: res + ".xlsx", Data: []byte("x")}, nil
}

func day(d int) time.Time { return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC) }

func TestOnlyStartDateKeepsDownloadDisabled(t *testing.T) {
	p := &fakeProber{total: 10}
	n := New(Kassabank, p)

	cnt, err := n.SetStart(context.Background(), day(1))
	require.NoError(t, err)

	assert.Zero(t, cnt)
	assert.Zero(t, n.Count())
	assert.False(t, n.CanDownload())
	assert.Empty(t, p.counts)

	_, err = n.Download(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, p.downloads)
}

func TestOneProbePerFilterCombination(t *testing.T) {
	p := &fakeProber{total: 4}
	n := New(Payments, p)
	ctx := context.Background()

	_, _ = n.SetStart(ctx, day(1))
	cnt, err := n.SetEnd(ctx, day(31))
	require.NoError(t, err)
	assert.Equal(t, 4, cnt)
	require.Len(t, p.counts, 1)
	assert.Equal(t, "01-03-2025", p.counts[0].Get("start_date"))
	assert.Equal(t, "31-03-2025", p.counts[0].Get("end_date"))
	assert.Empty(t, p.counts[0].Get("supplier_id"))

	// та же комбинация — без запроса
	_, _ = n.SetEnd(ctx, day(31))
	assert.Len(t, p.counts, 1)

	_, _ = n.SetDimension(ctx, 7, "ООО Бетон")
	require.Len(t, p.counts, 2)
	assert.Equal(t, "7", p.counts[1].Get("supplier_id"))

	_, _ = n.SetDimension(ctx, 7, "ООО Бетон")
	assert.Len(t, p.counts, 2)

	_, _ = n.ClearDimension(ctx)
	assert.Len(t, p.counts, 3)

	assert.True(t, n.CanDownload())
	f, err := n.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, "payments.xlsx", f.Name)
	require.Len(t, p.downloads, 1)
	assert.Empty(t, p.downloads[0].Get("count"))
}

func TestZeroCountDisablesDownload(t *testing.T) {
	p := &fakeProber{total: 0}
	n := New(Kassabank, p)
	ctx := context.Background()

	_, _ = n.SetStart(ctx, day(1))
	_, _ = n.SetEnd(ctx, day(2))

	assert.False(t, n.CanDownload())
	_, err := n.Download(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestClearingDateResetsCount(t *testing.T) {
	p := &fakeProber{total: 3}
	n := New(Kassabank, p)
	ctx := context.Background()

	_, _ = n.SetStart(ctx, day(1))
	_, _ = n.SetEnd(ctx, day(2))
	require.Equal(t, 3, n.Count())

	_, _ = n.SetEnd(ctx, time.Time{})
	assert.Zero(t, n.Count())
	assert.False(t, n.CanDownload())
}

func TestStartAfterEnd(t *testing.T) {
	p := &fakeProber{total: 3}
	n := New(Kassabank, p)
	ctx := context.Background()

	_, _ = n.SetStart(ctx, day(10))
	_, err := n.SetEnd(ctx, day(1))

	assert.ErrorIs(t, err, ErrRange)
	assert.Empty(t, p.counts)
	assert.False(t, n.CanDownload())
}

func TestProbeErrorAllowsRetry(t *testing.T) {
	p := &fakeProber{total: 3, err: errors.New("boom")}
	n := New(Kassabank, p)
	ctx := context.Background()

	_, _ = n.SetStart(ctx, day(1))
	_, err := n.SetEnd(ctx, day(2))
	require.Error(t, err)
	assert.False(t, n.CanDownload())

	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()

	cnt, err := n.SetEnd(ctx, day(2))
	require.NoError(t, err)
	assert.Equal(t, 3, cnt)
	assert.Len(t, p.counts, 2)
}

func TestRestore(t *testing.T) {
	p := &fakeProber{total: 2}
	n := New(Issues, p)

	cnt, err := n.Restore(context.Background(), Filter{Start: day(1), End: day(5), DimID: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)
	assert.Equal(t, "3", p.counts[0].Get("foreman_id"))
}

func TestLookup(t *testing.T) {
	k, ok := Lookup("kassabank")
	require.True(t, ok)
	assert.Nil(t, k.Dimension)

	k, ok = Lookup("kitchen-expenses")
	require.True(t, ok)
	assert.Equal(t, "category_id", k.Dimension.Param)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestInspect(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"id", "amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{1, 100}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{2, 200}))
	_, err := f.NewSheet("Итого")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Итого", "A1", &[]any{"total"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	s, err := Inspect(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Summary{Sheets: 2, Rows: 2}, s)
	assert.Equal(t, "листов: 2, строк: 2", s.String())

	_, err = Inspect([]byte("not a workbook"))
	assert.Error(t, err)
}
