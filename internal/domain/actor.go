package domain

// Actor is the authenticated caller of a service operation.
type Actor struct {
	MemberID int64
	Role     MemberRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == MemberRoleAdmin
}
