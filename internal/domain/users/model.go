package users

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FIO        string
	Role       Role
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Active — допущен к работе с ботом.
func (u *User) Active() bool { return u != nil && u.Status == StatusApproved }

func (u *User) IsAdmin() bool { return u.Active() && u.Role == RoleAdmin }

type Telegram struct {
	ID       int64
	Username string
}
