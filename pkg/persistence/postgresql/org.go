package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/bizflow/pkg/models"
)

// OrgRepository handles org directory database operations.
type OrgRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewOrgRepository creates a new org directory repository.
func NewOrgRepository(db *sql.DB, logger *slog.Logger) *OrgRepository {
	return &OrgRepository{db: db, logger: logger}
}

// Positions returns every position ordered by id.
func (r *OrgRepository) Positions(ctx context.Context) ([]*models.OrgPosition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, department_id, manager_position_id, holder_user_id
		FROM org_positions
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	positions := make([]*models.OrgPosition, 0)

	for rows.Next() {
		var (
			position                              models.OrgPosition
			departmentID, managerID, holderUserID sql.NullString
		)

		if err := rows.Scan(&position.ID, &position.Title, &departmentID, &managerID, &holderUserID); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		position.DepartmentID = stringPtr(departmentID)
		position.ManagerPositionID = stringPtr(managerID)
		position.HolderUserID = stringPtr(holderUserID)

		positions = append(positions, &position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// Users returns every user ordered by id.
func (r *OrgRepository) Users(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, chat_id FROM org_users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	users := make([]*models.User, 0)

	for rows.Next() {
		var user models.User

		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.ChatID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// SavePosition upserts a position.
func (r *OrgRepository) SavePosition(ctx context.Context, position *models.OrgPosition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO org_positions (id, title, department_id, manager_position_id, holder_user_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			department_id = EXCLUDED.department_id,
			manager_position_id = EXCLUDED.manager_position_id,
			holder_user_id = EXCLUDED.holder_user_id`,
		position.ID,
		position.Title,
		nullString(position.DepartmentID),
		nullString(position.ManagerPositionID),
		nullString(position.HolderUserID),
	)
	if err != nil {
		return fmt.Errorf("failed to save position %s: %w", position.ID, err)
	}

	return nil
}

// DeletePosition removes a position by its ID.
func (r *OrgRepository) DeletePosition(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM org_positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", id, err)
	}

	return nil
}

// SaveUser upserts a user.
func (r *OrgRepository) SaveUser(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO org_users (id, name, email, chat_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			chat_id = EXCLUDED.chat_id`,
		user.ID,
		user.Name,
		user.Email,
		user.ChatID,
	)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}

	return nil
}
