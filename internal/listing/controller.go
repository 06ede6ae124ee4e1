// Package listing — список ресурса с пагинацией и серверным поиском.
package listing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Spok95/sklad-bot/internal/api"
)

// MinQueryLen — короче этого запрос на сервер не уходит, грузим обычный список.
const MinQueryLen = 3

// Source — list/search одного ресурса.
type Source[T any] interface {
	List(ctx context.Context, page, limit int) (api.Page[T], error)
	Search(ctx context.Context, keyword string, page, limit int) (api.Page[T], error)
}

// State — то, что переживает между апдейтами (кладётся в payload диалога).
type State struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Query      string `json:"query,omitempty"`
}

type Controller[T any] struct {
	src   Source[T]
	limit int

	mu      sync.Mutex
	state   State
	items   []T
	loading bool
	seq     uint64
	cancel  context.CancelFunc
}

func New[T any](src Source[T], limit int) *Controller[T] {
	if limit <= 0 {
		limit = 10
	}
	return &Controller[T]{src: src, limit: limit, state: State{Page: 1}}
}

func (c *Controller[T]) Restore(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st.Page < 1 {
		st.Page = 1
	}
	c.state = st
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Searching — активен ли серверный поиск (запрос достаточной длины).
func (c *Controller[T]) Searching() bool {
	return IsSearch(c.State().Query)
}

// SetPage n < 1 трактуется как 1; страница за пределами totalPages
// запрашивается как есть и даёт пустой результат.
func (c *Controller[T]) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	st := c.State()
	st.Page = n
	return c.fetch(ctx, st)
}

// SetQuery меняет поисковую строку и сбрасывает на первую страницу.
func (c *Controller[T]) SetQuery(ctx context.Context, q string) error {
	st := c.State()
	st.Query = strings.TrimSpace(q)
	st.Page = 1
	return c.fetch(ctx, st)
}

// Refetch перечитывает текущую страницу. Предыдущий незавершённый запрос
// отменяется, его ответ не применяется.
func (c *Controller[T]) Refetch(ctx context.Context) error {
	return c.fetch(ctx, c.State())
}

// fetch запрашивает want. Страница и запрос сохраняются только вместе
// с пришедшими строками; при ошибке состояние остаётся прежним.
func (c *Controller[T]) fetch(ctx context.Context, want State) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()

	defer cancel()

	var (
		page api.Page[T]
		err  error
	)
	if IsSearch(want.Query) {
		page, err = c.src.Search(fctx, want.Query, want.Page, c.limit)
	} else {
		page, err = c.src.List(fctx, want.Page, c.limit)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStale
	}
	c.loading = false
	c.cancel = nil
	if err != nil {
		return err
	}
	want.TotalPages = page.Pages
	c.state = want
	c.items = page.Result
	return nil
}

// ErrStale — ответ устарел: после него уже был запущен новый запрос.
var ErrStale = errors.New("listing: superseded by a newer fetch")

// IsSearch — пойдёт ли запрос в search, а не в list.
func IsSearch(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) >= MinQueryLen
}

// HasPrev / HasNext для кнопок пагинации.
func (s State) HasPrev() bool { return s.Page > 1 }
func (s State) HasNext() bool { return s.Page < s.TotalPages }
