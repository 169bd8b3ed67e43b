package postgresql

import (
	"context"
	"database/sql"
	"payadmin/internal/domain"
	"payadmin/internal/port"
)

type profileRepository struct {
	store *Store
}

func NewProfileRepository(store *Store) port.ProfileRepository {
	return &profileRepository{store: store}
}

func (r *profileRepository) Role(ctx context.Context, userID string) (string, error) {
	var role string
	const query = `SELECT role FROM profiles WHERE user_id = $1`

	err := r.store.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", domain.ErrProfileNotFound
	}
	return role, err
}
