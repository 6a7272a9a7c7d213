package repository

import (
	"context"
	"time"
)

// NotificationLog is one recorded delivery attempt. The log is append-only;
// redelivered messages produce additional rows rather than updates.
type NotificationLog struct {
	ID      int64     `json:"id"`
	Email   string    `json:"email"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

type NotificationRepository interface {
	Append(ctx context.Context, log *NotificationLog) (int64, error)
	ListByEmail(ctx context.Context, email string) ([]NotificationLog, error)
	Close() error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
