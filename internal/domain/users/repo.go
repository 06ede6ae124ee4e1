package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const userCols = `id, telegram_id, username, fio, role, status, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FIO, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByTelegramID nil, nil — пользователя нет.
func (r *Repo) GetByTelegramID(ctx context.Context, tgID int64) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE telegram_id = $1`, tgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Register заявка на доступ. Уже подтверждённого пользователя не
// возвращает в pending, только обновляет ФИО и username.
func (r *Repo) Register(ctx context.Context, tg Telegram, fio string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, fio, role, status)
		VALUES ($1, $2, $3, 'staff', 'pending')
		ON CONFLICT (telegram_id)
		DO UPDATE SET
			username   = EXCLUDED.username,
			fio        = EXCLUDED.fio,
			status     = CASE WHEN users.status = 'approved' THEN users.status ELSE 'pending' END,
			updated_at = now()
		RETURNING `+userCols, tg.ID, tg.Username, fio))
}

func (r *Repo) Approve(ctx context.Context, tgID int64, role Role) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, role, status)
		VALUES ($1, $2, 'approved')
		ON CONFLICT (telegram_id)
		DO UPDATE SET role = EXCLUDED.role, status = 'approved', updated_at = now()
		RETURNING `+userCols, tgID, role))
}

func (r *Repo) Reject(ctx context.Context, tgID int64) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET status = 'rejected', updated_at = now()
		WHERE telegram_id = $1
		RETURNING `+userCols, tgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}
