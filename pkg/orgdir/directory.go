package orgdir

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dukex/bizflow/pkg/models"
)

var (
	// ErrHierarchyCycle indicates that following manager references loops back.
	ErrHierarchyCycle = errors.New("position hierarchy contains a cycle")

	// ErrPositionNotFound indicates the position id is not part of the directory.
	ErrPositionNotFound = errors.New("position not found")
)

// Directory is a read-only snapshot of positions and users keyed by id.
// Hierarchy relations are computed lazily from ManagerPositionID references;
// the data is treated as a forest that may contain dangling references or cycles.
type Directory struct {
	positions []*models.OrgPosition
	users     []*models.User
	byID      map[string]*models.OrgPosition
	usersByID map[string]*models.User
}

// New builds a directory from the given snapshot.
func New(positions []*models.OrgPosition, users []*models.User) *Directory {
	d := &Directory{
		positions: positions,
		users:     users,
		byID:      make(map[string]*models.OrgPosition, len(positions)),
		usersByID: make(map[string]*models.User, len(users)),
	}

	for _, position := range positions {
		d.byID[position.ID] = position
	}

	for _, user := range users {
		d.usersByID[user.ID] = user
	}

	return d
}

// Resolve returns the executor of step, see ResolveAssignee.
func (d *Directory) Resolve(step *models.ProcessStep) (string, bool) {
	return ResolveAssignee(step, d.positions, d.users)
}

// Position returns the position with the given id, or nil.
func (d *Directory) Position(id string) *models.OrgPosition {
	return d.byID[id]
}

// User returns the user with the given id, or nil.
func (d *Directory) User(id string) *models.User {
	return d.usersByID[id]
}

// Holder returns the user currently holding the position.
func (d *Directory) Holder(positionID string) (*models.User, bool) {
	position, ok := d.byID[positionID]
	if !ok || position.Vacant() {
		return nil, false
	}

	user, ok := d.usersByID[*position.HolderUserID]

	return user, ok
}

// manager returns the parent position, or nil when the position is a root
// (no manager reference or a dangling one).
func (d *Directory) manager(position *models.OrgPosition) *models.OrgPosition {
	if position.ManagerPositionID == nil {
		return nil
	}

	return d.byID[*position.ManagerPositionID]
}

// Ancestors returns the management chain of a position, nearest manager first.
func (d *Directory) Ancestors(positionID string) ([]*models.OrgPosition, error) {
	position, ok := d.byID[positionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}

	visited := map[string]struct{}{position.ID: {}}
	chain := make([]*models.OrgPosition, 0)

	for current := d.manager(position); current != nil; current = d.manager(current) {
		if _, seen := visited[current.ID]; seen {
			return chain, fmt.Errorf("%w: at position %s", ErrHierarchyCycle, current.ID)
		}

		visited[current.ID] = struct{}{}
		chain = append(chain, current)
	}

	return chain, nil
}

// Subordinates returns the positions directly managed by positionID, ordered by id.
func (d *Directory) Subordinates(positionID string) []*models.OrgPosition {
	children := make([]*models.OrgPosition, 0)

	for _, position := range d.positions {
		if position.ManagerPositionID != nil && *position.ManagerPositionID == positionID && position.ID != positionID {
			children = append(children, position)
		}
	}

	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })

	return children
}

// Roots returns the hierarchy roots: positions without a resolvable manager.
func (d *Directory) Roots() []*models.OrgPosition {
	roots := make([]*models.OrgPosition, 0)

	for _, position := range d.positions {
		if d.manager(position) == nil {
			roots = append(roots, position)
		}
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	return roots
}

// Validate reports every position whose management chain loops.
func (d *Directory) Validate() error {
	var errs []error

	for _, position := range d.positions {
		if _, err := d.Ancestors(position.ID); err != nil {
			errs = append(errs, fmt.Errorf("position %s: %w", position.ID, err))
		}
	}

	return errors.Join(errs...)
}
