package file

import (
	"context"
	"fmt"

	"github.com/dukex/bizflow/pkg/models"
)

// OrgRepository handles org directory file operations.
type OrgRepository struct {
	positions *collection
	users     *collection
}

// NewOrgRepository creates a new org directory repository.
func NewOrgRepository(root string) *OrgRepository {
	return &OrgRepository{
		positions: newCollection(root, "org", "positions"),
		users:     newCollection(root, "org", "users"),
	}
}

// Positions returns every position ordered by id.
func (r *OrgRepository) Positions(_ context.Context) ([]*models.OrgPosition, error) {
	r.positions.mu.RLock()
	defer r.positions.mu.RUnlock()

	positions, err := loadAll[models.OrgPosition](r.positions)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	return positions, nil
}

// Users returns every user ordered by id.
func (r *OrgRepository) Users(_ context.Context) ([]*models.User, error) {
	r.users.mu.RLock()
	defer r.users.mu.RUnlock()

	users, err := loadAll[models.User](r.users)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	return users, nil
}

// SavePosition creates or replaces a position.
func (r *OrgRepository) SavePosition(_ context.Context, position *models.OrgPosition) error {
	r.positions.mu.Lock()
	defer r.positions.mu.Unlock()

	if err := r.positions.write(position.ID, position); err != nil {
		return fmt.Errorf("failed to save position %s: %w", position.ID, err)
	}

	return nil
}

// DeletePosition removes a position. Positions managed by it keep their dangling reference
// and become hierarchy roots.
func (r *OrgRepository) DeletePosition(_ context.Context, id string) error {
	r.positions.mu.Lock()
	defer r.positions.mu.Unlock()

	if _, err := r.positions.remove(id); err != nil {
		return fmt.Errorf("failed to delete position %s: %w", id, err)
	}

	return nil
}

// SaveUser creates or replaces a user.
func (r *OrgRepository) SaveUser(_ context.Context, user *models.User) error {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	if err := r.users.write(user.ID, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}

	return nil
}
