// Package search раздаёт поисковые запросы экранам-спискам.
// Каждый список подписывается на свой тег и получает только свои запросы.
package search

import (
	"context"
	"sync"
	"time"
)

type Query struct {
	ChatID int64
	Page   string // тег экрана (ресурса)
	Text   string
}

type Handler func(ctx context.Context, q Query)

type Dispatcher struct {
	delay time.Duration

	mu      sync.Mutex
	subs    map[string]map[uint64]Handler
	nextID  uint64
	pending map[int64]*time.Timer
	closed  bool
}

// New delay — окно дебаунса на чат; 0 — доставка сразу.
func New(delay time.Duration) *Dispatcher {
	return &Dispatcher{
		delay:   delay,
		subs:    make(map[string]map[uint64]Handler),
		pending: make(map[int64]*time.Timer),
	}
}

// Subscribe возвращает функцию отписки (идемпотентна).
func (d *Dispatcher) Subscribe(page string, h Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	if d.subs[page] == nil {
		d.subs[page] = make(map[uint64]Handler)
	}
	d.subs[page][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs[page], id)
			if len(d.subs[page]) == 0 {
				delete(d.subs, page)
			}
		})
	}
}

// Publish доставляет запрос подписчикам тега q.Page. При delay > 0
// запросы одного чата схлопываются: применяется только последний.
func (d *Dispatcher) Publish(ctx context.Context, q Query) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.delay <= 0 {
		d.mu.Unlock()
		d.deliver(ctx, q)
		return
	}
	defer d.mu.Unlock()
	if t, ok := d.pending[q.ChatID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[q.ChatID] != t {
			d.mu.Unlock()
			return
		}
		delete(d.pending, q.ChatID)
		d.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		d.deliver(ctx, q)
	})
	d.pending[q.ChatID] = t
}

func (d *Dispatcher) deliver(ctx context.Context, q Query) {
	d.mu.Lock()
	hs := make([]Handler, 0, len(d.subs[q.Page]))
	for _, h := range d.subs[q.Page] {
		hs = append(hs, h)
	}
	d.mu.Unlock()

	for _, h := range hs {
		h(ctx, q)
	}
}

// Searching — есть ли у чата запрос, ожидающий доставки.
func (d *Dispatcher) Searching(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[chatID]
	return ok
}

// Cancel сбрасывает ожидающий запрос чата (уход с экрана).
func (d *Dispatcher) Cancel(chatID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[chatID]; ok {
		t.Stop()
		delete(d.pending, chatID)
	}
}

func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, t := range d.pending {
		t.Stop()
		delete(d.pending, id)
	}
}
