// Package orgdir resolves process step assignees through the organizational hierarchy.
package orgdir

import "github.com/dukex/bizflow/pkg/models"

// ResolveAssignee returns the user who must execute step.
//
// A user-typed step resolves to its AssigneeID unchanged. A position-typed step
// resolves to the holder of the position with matching id; ok is false when the
// position is missing or vacant.
func ResolveAssignee(step *models.ProcessStep, positions []*models.OrgPosition, _ []*models.User) (string, bool) {
	if step == nil {
		return "", false
	}

	switch step.AssigneeType {
	case models.AssigneeTypeUser:
		return step.AssigneeID, true
	case models.AssigneeTypePosition:
		for _, position := range positions {
			if position.ID != step.AssigneeID {
				continue
			}

			if position.Vacant() {
				return "", false
			}

			return *position.HolderUserID, true
		}

		return "", false
	default:
		return "", false
	}
}
