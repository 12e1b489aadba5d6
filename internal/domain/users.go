package domain

// Fixed demo identities. There is no user store.
var (
	AdminUser   = User{ID: "admin-1", Name: "Admin User", Email: "admin@example.com", Role: RoleAdmin}
	RegularUser = User{ID: "user-1", Name: "Regular User", Email: "user@example.com", Role: RoleUser}
)

type credential struct {
	secret string
	user   User
}

var credentials = map[string]credential{
	AdminUser.Email:   {secret: "admin", user: AdminUser},
	RegularUser.Email: {secret: "user", user: RegularUser},
}

// Authenticate resolves an identifier/secret pair to one of the fixed identities.
func Authenticate(identifier, secret string) (User, error) {
	if identifier == "" || secret == "" {
		return User{}, ErrMissingField
	}
	c, ok := credentials[identifier]
	if !ok || c.secret != secret {
		return User{}, ErrInvalidCredentials
	}
	return c.user, nil
}

// LookupUser returns the fixed identity with the given ID.
func LookupUser(id string) (User, bool) {
	for _, c := range credentials {
		if c.user.ID == id {
			return c.user, true
		}
	}
	return User{}, false
}
