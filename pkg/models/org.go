package models

// OrgPosition is a node of the organizational hierarchy. ManagerPositionID links a
// position to its parent; positions without a valid parent are roots.
type OrgPosition struct {
	ID                string  `json:"id"                            validate:"required"`
	Title             string  `json:"title"                         validate:"required"`
	DepartmentID      *string `json:"department_id,omitempty"`
	ManagerPositionID *string `json:"manager_position_id,omitempty"`
	HolderUserID      *string `json:"holder_user_id,omitempty"`
}

// Vacant reports whether nobody currently holds the position.
func (p *OrgPosition) Vacant() bool {
	return p.HolderUserID == nil || *p.HolderUserID == ""
}

// User is a person that can hold positions and execute tasks.
type User struct {
	ID     string `json:"id"                validate:"required"`
	Name   string `json:"name"              validate:"required"`
	Email  string `json:"email,omitempty"   validate:"omitempty,email"`
	ChatID string `json:"chat_id,omitempty"`
}
