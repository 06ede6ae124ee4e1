// Package export — выгрузка в Excel: фильтры собираются по шагам,
// после каждого изменения сервер сообщает число строк (count=1),
// скачивание доступно только при count > 0.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Spok95/sklad-bot/internal/api"
)

var (
	ErrNotReady = errors.New("export: dates are not set or nothing to export")
	ErrRange    = errors.New("export: start date is after end date")
	ErrStale    = errors.New("export: superseded by a newer filter")
)

// Prober — count/download эндпоинта api/excel/<res>.
type Prober interface {
	Count(ctx context.Context, res string, q url.Values) (int, error)
	Download(ctx context.Context, res string, q url.Values) (api.File, error)
}

type Filter struct {
	Start   time.Time `json:"start,omitempty"`
	End     time.Time `json:"end,omitempty"`
	DimID   int64     `json:"dim_id,omitempty"`
	DimName string    `json:"dim_name,omitempty"`
}

// Complete — обе даты заданы.
func (f Filter) Complete() bool { return !f.Start.IsZero() && !f.End.IsZero() }

// Query параметры запроса; даты выгрузки — ДД-ММ-ГГГГ.
func (f Filter) Query(k Kind) url.Values {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("start_date", api.FormatExcel(f.Start))
	}
	if !f.End.IsZero() {
		q.Set("end_date", api.FormatExcel(f.End))
	}
	if k.Dimension != nil && f.DimID > 0 {
		q.Set(k.Dimension.Param, strconv.FormatInt(f.DimID, 10))
	}
	return q
}

func (f Filter) key() string {
	return fmt.Sprintf("%s|%s|%d", api.FormatCRUD(f.Start), api.FormatCRUD(f.End), f.DimID)
}

type Negotiator struct {
	kind Kind
	src  Prober

	mu        sync.Mutex
	filter    Filter
	count     int
	probedKey string
	seq       uint64
}

func New(kind Kind, src Prober) *Negotiator {
	return &Negotiator{kind: kind, src: src}
}

func (n *Negotiator) Kind() Kind { return n.kind }

func (n *Negotiator) Filter() Filter {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.filter
}

// Count 0, пока не заданы обе даты.
func (n *Negotiator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.filter.Complete() {
		return 0
	}
	return n.count
}

func (n *Negotiator) CanDownload() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.filter.Complete() && n.count > 0 && n.probedKey == n.filter.key()
}

func (n *Negotiator) SetStart(ctx context.Context, t time.Time) (int, error) {
	return n.apply(ctx, func(f *Filter) { f.Start = t })
}

func (n *Negotiator) SetEnd(ctx context.Context, t time.Time) (int, error) {
	return n.apply(ctx, func(f *Filter) { f.End = t })
}

func (n *Negotiator) SetDimension(ctx context.Context, id int64, name string) (int, error) {
	return n.apply(ctx, func(f *Filter) { f.DimID, f.DimName = id, name })
}

func (n *Negotiator) ClearDimension(ctx context.Context) (int, error) {
	return n.apply(ctx, func(f *Filter) { f.DimID, f.DimName = 0, "" })
}

// Restore подставляет сохранённый фильтр и заново узнаёт count.
func (n *Negotiator) Restore(ctx context.Context, f Filter) (int, error) {
	return n.apply(ctx, func(cur *Filter) { *cur = f })
}

func (n *Negotiator) apply(ctx context.Context, mutate func(*Filter)) (int, error) {
	n.mu.Lock()
	mutate(&n.filter)
	f := n.filter

	if !f.Complete() || f.Start.After(f.End) {
		n.seq++
		n.count = 0
		n.probedKey = ""
		n.mu.Unlock()
		if f.Complete() {
			return 0, ErrRange
		}
		return 0, nil
	}

	key := f.key()
	if key == n.probedKey {
		c := n.count
		n.mu.Unlock()
		return c, nil
	}
	n.seq++
	seq := n.seq
	n.count = 0
	n.probedKey = key
	n.mu.Unlock()

	cnt, err := n.src.Count(ctx, n.kind.Resource, f.Query(n.kind))

	n.mu.Lock()
	defer n.mu.Unlock()
	if seq != n.seq {
		return 0, ErrStale
	}
	if err != nil {
		n.probedKey = ""
		return 0, err
	}
	n.count = cnt
	return cnt, nil
}

// Download без готового фильтра запрос не отправляет.
func (n *Negotiator) Download(ctx context.Context) (api.File, error) {
	if !n.CanDownload() {
		return api.File{}, ErrNotReady
	}
	f := n.Filter()
	return n.src.Download(ctx, n.kind.Resource, f.Query(n.kind))
}
