package domain

// User is the minimal projection cached client-side for display purposes.
// It is never authoritative; the server re-checks permissions on every
// privileged call.
type User struct {
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin,omitempty"`
}

// Account is the server-side user record held by the emulator.
type Account struct {
	ID           int64  // Unique identifier
	Email        string // Login email, unique
	Name         string // Display name
	PasswordHash []byte // bcrypt hash
	IsSuperAdmin bool   // Grants user management rights
	CreatedAt    int64  // Unix timestamp of account creation
}

// Projection returns the client-visible view of the account.
func (a Account) Projection() User {
	return User{
		Email:        a.Email,
		Name:         a.Name,
		IsSuperAdmin: a.IsSuperAdmin,
	}
}
