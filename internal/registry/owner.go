package registry

// Owner is the capability a caller presents to owner-scoped operations.
type Owner struct {
	id string
}

// Anonymous is the owner used when authentication is disabled.
var Anonymous = Owner{}

// UserOwner returns the owner for an authenticated user id.
func UserOwner(id string) Owner {
	return Owner{id: id}
}

// ID returns the user id, empty for Anonymous.
func (o Owner) ID() string {
	return o.id
}

// IsAnonymous reports whether o carries no user.
func (o Owner) IsAnonymous() bool {
	return o.id == ""
}

func (o Owner) owns(u *ShortenedURL) bool {
	return u.Owner == o.id
}
