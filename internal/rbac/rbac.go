package rbac

type Role string
type Action string

const (
	RoleVisitor Role = "visitor"
	RoleAdmin   Role = "admin"
)

const (
	// ActionRead covers the published aggregate document and settings.
	ActionRead Action = "read"
	// ActionEdit covers every content mutation.
	ActionEdit Action = "edit"
	// ActionManage covers snapshots, uploads and the asset outbox.
	ActionManage Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleVisitor:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleVisitor, RoleAdmin:
		return Role(role)
	default:
		return RoleVisitor
	}
}

// ForUser maps the stored admin flag onto a role.
func ForUser(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleVisitor
}
