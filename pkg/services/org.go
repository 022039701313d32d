package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/orgdir"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

// Org manages the org directory the engine resolves assignees against.
type Org struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewOrg creates a new org directory service.
func NewOrg(persistence persistence.Persistence) *Org {
	return &Org{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Directory loads a snapshot of the whole org directory.
func (o *Org) Directory(ctx context.Context) (*orgdir.Directory, error) {
	positions, err := o.Positions(ctx)
	if err != nil {
		return nil, err
	}

	users, err := o.Users(ctx)
	if err != nil {
		return nil, err
	}

	return orgdir.New(positions, users), nil
}

func (o *Org) Positions(ctx context.Context) ([]*models.OrgPosition, error) {
	positions, err := o.persistence.OrgRepository().Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	return positions, nil
}

func (o *Org) Users(ctx context.Context) ([]*models.User, error) {
	users, err := o.persistence.OrgRepository().Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Position returns the position or ErrPositionNotFound.
func (o *Org) Position(ctx context.Context, id string) (*models.OrgPosition, error) {
	dir, err := o.Directory(ctx)
	if err != nil {
		return nil, err
	}

	position := dir.Position(id)
	if position == nil {
		return nil, persistence.NewEntityError("Position", "position", id, ErrPositionNotFound)
	}

	return position, nil
}

// User returns the user or ErrUserNotFound.
func (o *Org) User(ctx context.Context, id string) (*models.User, error) {
	dir, err := o.Directory(ctx)
	if err != nil {
		return nil, err
	}

	user := dir.User(id)
	if user == nil {
		return nil, persistence.NewEntityError("User", "user", id, ErrUserNotFound)
	}

	return user, nil
}

// SavePosition stores a position. Manager references to unknown positions are
// accepted (the position becomes a root), but a reference that closes a loop is
// rejected with ErrHierarchyCycle.
func (o *Org) SavePosition(ctx context.Context, position *models.OrgPosition) (*models.OrgPosition, error) {
	if position == nil {
		return nil, NewValidationError("SavePosition", "nil_position", "position cannot be nil", ErrInvalidRequest)
	}

	err := o.validate.Struct(position)
	if err != nil {
		return nil, NewValidationError("SavePosition", "validation_failed", err.Error(), ErrInvalidRequest)
	}

	positions, err := o.Positions(ctx)
	if err != nil {
		return nil, err
	}

	candidate := make([]*models.OrgPosition, 0, len(positions)+1)
	for _, existing := range positions {
		if existing.ID != position.ID {
			candidate = append(candidate, existing)
		}
	}

	candidate = append(candidate, position)

	_, err = orgdir.New(candidate, nil).Ancestors(position.ID)
	if errors.Is(err, orgdir.ErrHierarchyCycle) {
		return nil, &ServiceError{Op: "SavePosition", Code: "hierarchy_cycle", Message: err.Error(), Err: ErrHierarchyCycle}
	}

	err = o.persistence.OrgRepository().SavePosition(ctx, position)
	if err != nil {
		return nil, fmt.Errorf("failed to save position: %w", err)
	}

	return position, nil
}

// DeletePosition removes a position. Positions it managed become roots.
func (o *Org) DeletePosition(ctx context.Context, id string) error {
	if _, err := o.Position(ctx, id); err != nil {
		return err
	}

	err := o.persistence.OrgRepository().DeletePosition(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	return nil
}

func (o *Org) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, NewValidationError("SaveUser", "nil_user", "user cannot be nil", ErrInvalidRequest)
	}

	err := o.validate.Struct(user)
	if err != nil {
		return nil, NewValidationError("SaveUser", "validation_failed", err.Error(), ErrInvalidRequest)
	}

	err = o.persistence.OrgRepository().SaveUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return user, nil
}

// Chain returns the position followed by its managers up to the root.
func (o *Org) Chain(ctx context.Context, positionID string) ([]*models.OrgPosition, error) {
	dir, err := o.Directory(ctx)
	if err != nil {
		return nil, err
	}

	position := dir.Position(positionID)
	if position == nil {
		return nil, persistence.NewEntityError("Chain", "position", positionID, ErrPositionNotFound)
	}

	ancestors, err := dir.Ancestors(positionID)
	if err != nil {
		return nil, &ServiceError{Op: "Chain", Code: "hierarchy_cycle", Message: err.Error(), Err: ErrHierarchyCycle}
	}

	return append([]*models.OrgPosition{position}, ancestors...), nil
}
