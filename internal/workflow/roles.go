package workflow

// Role is the closed set of actor roles recognised by the approval chain.
type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleOperations Role = "operations"
	RoleManagement Role = "management"
	RoleFinance    Role = "finance"
	RoleAdmin      Role = "admin"
)

// Roles lists every valid role
var Roles = []Role{RoleBuyer, RoleOperations, RoleManagement, RoleFinance, RoleAdmin}

// ParseRole maps a raw string onto the closed role set
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	switch r {
	case RoleBuyer, RoleOperations, RoleManagement, RoleFinance, RoleAdmin:
		return r, true
	}
	return "", false
}

// Stage is one role-gated step in the approval chain
type Stage string

const (
	StageBuyer      Stage = "buyer"
	StageOperations Stage = "operations"
	StageManagement Stage = "management"
	StageFinance    Stage = "finance"
)

// roleForStage maps each stage onto the single role allowed to act on it
var roleForStage = map[Stage]Role{
	StageBuyer:      RoleBuyer,
	StageOperations: RoleOperations,
	StageManagement: RoleManagement,
	StageFinance:    RoleFinance,
}

// CanActOnStage reports whether the role may sign or reject at the given
// stage. Admin can act anywhere.
func CanActOnStage(role Role, stage Stage) bool {
	if role == RoleAdmin {
		return true
	}
	return roleForStage[stage] == role
}

// CanResolveAmendment reports whether the role may approve or reject an edit
// request. Any approval-stage role except the buyer qualifies: the requester
// must never be able to unlock their own order.
func CanResolveAmendment(role Role) bool {
	switch role {
	case RoleOperations, RoleManagement, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// CanResubmit reports whether the role may resubmit a rejected order
func CanResubmit(role Role) bool {
	return role == RoleBuyer || role == RoleAdmin
}

// Actor identifies who is performing a workflow action
type Actor struct {
	Email string
	Role  Role
}
