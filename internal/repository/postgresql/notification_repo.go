package postgresql

import (
	"context"
	"payadmin/internal/domain"
	"payadmin/internal/port"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	uniqueConstraint pq.ErrorCode = "23505"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) port.NotificationRepository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `INSERT INTO notifications (id, user_id, title, message, type, related_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	id := n.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.store.conn(ctx).ExecContext(ctx, query, id, n.UserID, n.Title, n.Message, n.Type, n.RelatedID, createdAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueConstraint {
			// One notification per (withdrawal, outcome); a retried insert
			// means the row is already there.
			return domain.ErrDuplicateNotification
		}
		return err
	}
	return nil
}
