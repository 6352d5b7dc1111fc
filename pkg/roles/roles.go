package roles

// Role représente le niveau de droits d'un utilisateur.
type Role string

const (
	User  Role = "USER"
	Admin Role = "ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case User, Admin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
