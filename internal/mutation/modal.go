// Package mutation — жизненный цикл формы создания/удаления:
// Closed → Open → Submitting → {Closed | Open с ошибкой}.
package mutation

import (
	"context"
	"errors"
	"sync"

	"github.com/Spok95/sklad-bot/internal/form"
)

type Status int

const (
	Closed Status = iota
	Open
	Submitting
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

var (
	// ErrBusy — повторная отправка, пока предыдущая не завершилась.
	ErrBusy = errors.New("mutation: submit in progress")
	// ErrClosed — отправка закрытой формы.
	ErrClosed = errors.New("mutation: modal is closed")
)

// Result итог Submit. FieldErrors != nil — запрос не отправлялся.
type Result struct {
	FieldErrors form.FieldErrors
	Err         error
}

func (r Result) OK() bool { return r.FieldErrors == nil && r.Err == nil }

type Modal struct {
	mu        sync.Mutex
	status    Status
	fieldErrs form.FieldErrors
	lastErr   error

	// OnSuccess вызывается после успешной отправки (перечитать список).
	OnSuccess func(ctx context.Context)
}

func (m *Modal) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == Submitting {
		return
	}
	m.status = Open
	m.fieldErrs = nil
	m.lastErr = nil
}

func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == Submitting {
		return
	}
	m.status = Closed
	m.fieldErrs = nil
	m.lastErr = nil
}

func (m *Modal) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Modal) FieldErrors() form.FieldErrors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fieldErrs
}

func (m *Modal) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Submit validate (может быть nil) → do. Ошибки валидации и сервера
// оставляют форму открытой; успех закрывает её и вызывает OnSuccess.
func (m *Modal) Submit(ctx context.Context, validate func() form.FieldErrors, do func(ctx context.Context) error) Result {
	m.mu.Lock()
	switch m.status {
	case Submitting:
		m.mu.Unlock()
		return Result{Err: ErrBusy}
	case Closed:
		m.mu.Unlock()
		return Result{Err: ErrClosed}
	}
	if validate != nil {
		if fe := validate(); len(fe) > 0 {
			m.fieldErrs = fe
			m.lastErr = nil
			m.mu.Unlock()
			return Result{FieldErrors: fe}
		}
	}
	m.status = Submitting
	m.fieldErrs = nil
	m.lastErr = nil
	m.mu.Unlock()

	err := do(ctx)

	m.mu.Lock()
	if err != nil {
		m.status = Open
		m.lastErr = err
		m.mu.Unlock()
		return Result{Err: err}
	}
	m.status = Closed
	onSuccess := m.OnSuccess
	m.mu.Unlock()

	if onSuccess != nil {
		onSuccess(ctx)
	}
	return Result{}
}

// Registry — по одной форме на чат.
type Registry struct {
	mu     sync.Mutex
	modals map[int64]*Modal
}

func NewRegistry() *Registry {
	return &Registry{modals: make(map[int64]*Modal)}
}

func (r *Registry) Get(chatID int64) *Modal {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modals[chatID]
	if !ok {
		m = &Modal{}
		r.modals[chatID] = m
	}
	return m
}

// Drop убирает закрытую форму чата.
func (r *Registry) Drop(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modals[chatID]; ok && m.Status() != Submitting {
		delete(r.modals, chatID)
	}
}
