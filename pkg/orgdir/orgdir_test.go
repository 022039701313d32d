package orgdir

import (
	"testing"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func testPositions() []*models.OrgPosition {
	return []*models.OrgPosition{
		{ID: "ceo", Title: "CEO", HolderUserID: ptr("u-ceo")},
		{ID: "cfo", Title: "CFO", ManagerPositionID: ptr("ceo"), HolderUserID: ptr("u-cfo")},
		{ID: "accountant", Title: "Accountant", ManagerPositionID: ptr("cfo")},
		{ID: "orphan", Title: "Orphan", ManagerPositionID: ptr("missing"), HolderUserID: ptr("u-orphan")},
	}
}

func TestResolveAssignee_User(t *testing.T) {
	step := &models.ProcessStep{AssigneeType: models.AssigneeTypeUser, AssigneeID: "u1"}

	userID, ok := ResolveAssignee(step, nil, nil)
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)
}

func TestResolveAssignee_UserNotCheckedForExistence(t *testing.T) {
	step := &models.ProcessStep{AssigneeType: models.AssigneeTypeUser, AssigneeID: "ghost"}

	userID, ok := ResolveAssignee(step, testPositions(), []*models.User{{ID: "u1"}})
	assert.True(t, ok)
	assert.Equal(t, "ghost", userID)
}

func TestResolveAssignee_Position(t *testing.T) {
	tests := []struct {
		name       string
		positionID string
		expected   string
		ok         bool
	}{
		{"held position", "cfo", "u-cfo", true},
		{"vacant position", "accountant", "", false},
		{"missing position", "nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := &models.ProcessStep{AssigneeType: models.AssigneeTypePosition, AssigneeID: tt.positionID}

			userID, ok := ResolveAssignee(step, testPositions(), nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, userID)
		})
	}
}

func TestResolveAssignee_UnknownType(t *testing.T) {
	_, ok := ResolveAssignee(&models.ProcessStep{AssigneeType: "team", AssigneeID: "x"}, nil, nil)
	assert.False(t, ok)

	_, ok = ResolveAssignee(nil, nil, nil)
	assert.False(t, ok)
}

func TestDirectory_Ancestors(t *testing.T) {
	dir := New(testPositions(), nil)

	chain, err := dir.Ancestors("accountant")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "cfo", chain[0].ID)
	assert.Equal(t, "ceo", chain[1].ID)

	chain, err = dir.Ancestors("orphan")
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = dir.Ancestors("missing")
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestDirectory_AncestorsDetectsCycle(t *testing.T) {
	dir := New([]*models.OrgPosition{
		{ID: "a", ManagerPositionID: ptr("b")},
		{ID: "b", ManagerPositionID: ptr("c")},
		{ID: "c", ManagerPositionID: ptr("a")},
	}, nil)

	_, err := dir.Ancestors("a")
	assert.ErrorIs(t, err, ErrHierarchyCycle)
	assert.ErrorIs(t, dir.Validate(), ErrHierarchyCycle)
}

func TestDirectory_SelfManagedPositionIsCycle(t *testing.T) {
	dir := New([]*models.OrgPosition{{ID: "a", ManagerPositionID: ptr("a")}}, nil)

	_, err := dir.Ancestors("a")
	assert.ErrorIs(t, err, ErrHierarchyCycle)
}

func TestDirectory_RootsAndSubordinates(t *testing.T) {
	dir := New(testPositions(), nil)

	roots := dir.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "ceo", roots[0].ID)
	assert.Equal(t, "orphan", roots[1].ID)

	subs := dir.Subordinates("ceo")
	require.Len(t, subs, 1)
	assert.Equal(t, "cfo", subs[0].ID)
	assert.NoError(t, dir.Validate())
}

func TestDirectory_Holder(t *testing.T) {
	dir := New(testPositions(), []*models.User{{ID: "u-cfo", Name: "Finance Lead"}})

	user, ok := dir.Holder("cfo")
	require.True(t, ok)
	assert.Equal(t, "Finance Lead", user.Name)

	_, ok = dir.Holder("accountant")
	assert.False(t, ok)

	_, ok = dir.Holder("ceo")
	assert.False(t, ok, "holder id without a user record")

	userID, ok := dir.Resolve(&models.ProcessStep{AssigneeType: models.AssigneeTypePosition, AssigneeID: "ceo"})
	assert.True(t, ok)
	assert.Equal(t, "u-ceo", userID)
}
