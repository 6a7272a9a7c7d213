package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_AssignsSequentialIDs(t *testing.T) {
	sut := NewMemoryRepository()

	first, err := sut.Append(context.Background(), &NotificationLog{Email: "a@example.com", SentAt: time.Now()})
	require.NoError(t, err)
	second, err := sut.Append(context.Background(), &NotificationLog{Email: "a@example.com", SentAt: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestListByEmail_FiltersAndOrdersNewestFirst(t *testing.T) {
	sut := NewMemoryRepository()
	now := time.Now().UTC()

	_, err := sut.Append(context.Background(), &NotificationLog{Email: "a@example.com", Subject: "old", SentAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = sut.Append(context.Background(), &NotificationLog{Email: "b@example.com", Subject: "other", SentAt: now})
	require.NoError(t, err)
	_, err = sut.Append(context.Background(), &NotificationLog{Email: "a@example.com", Subject: "new", SentAt: now})
	require.NoError(t, err)

	logs, err := sut.ListByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "new", logs[0].Subject)
	assert.Equal(t, "old", logs[1].Subject)
}

func TestListByEmail_UnknownEmailReturnsEmpty(t *testing.T) {
	sut := NewMemoryRepository()

	logs, err := sut.ListByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAppend_DuplicateEntriesBothKept(t *testing.T) {
	sut := NewMemoryRepository()
	entry := NotificationLog{Email: "a@example.com", Subject: "s", Message: "m", SentAt: time.Now().UTC()}

	_, err := sut.Append(context.Background(), &entry)
	require.NoError(t, err)
	_, err = sut.Append(context.Background(), &entry)
	require.NoError(t, err)

	logs, err := sut.ListByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
