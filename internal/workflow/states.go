package workflow

import "backend/internal/model"

// PendingStage returns the stage currently awaiting action for a workflow
// state. Paid and Rejected have no pending stage.
func PendingStage(state string) (Stage, bool) {
	switch state {
	case model.StatePendingBuyerSignature:
		return StageBuyer, true
	case model.StatePendingOperations:
		return StageOperations, true
	case model.StateOperationsApproved:
		return StageManagement, true
	case model.StateManagementApproved:
		return StageFinance, true
	}
	return "", false
}

// stateAfterSign maps a signed stage onto the state the order enters next.
// The finance stage is completed by payment registration, not by signing.
var stateAfterSign = map[Stage]string{
	StageBuyer:      model.StatePendingOperations,
	StageOperations: model.StateOperationsApproved,
	StageManagement: model.StateManagementApproved,
}

// IsTerminal reports whether the state admits no further transitions
func IsTerminal(state string) bool {
	return state == model.StatePaid
}

// NotifyTarget returns the role to notify when an order enters the given
// state, derived purely from the target state.
func NotifyTarget(state string) (Role, bool) {
	switch state {
	case model.StatePendingOperations:
		return RoleOperations, true
	case model.StateOperationsApproved:
		return RoleManagement, true
	case model.StateManagementApproved:
		return RoleFinance, true
	case model.StatePaid, model.StateRejected:
		return RoleBuyer, true
	}
	return "", false
}
