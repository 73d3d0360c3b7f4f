package domain

// User is an account identity. Email and username are unique across the
// directory; IsActive flips once an ACTIVATE token has been consumed.
type User struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"-"`
	IsActive  bool   `json:"is_active"`
}

// Ref returns the lightweight reference stored in group membership rows.
func (u User) Ref() UserRef {
	return UserRef{Email: u.Email, Username: u.Username}
}

// UserUpdate carries the mutable profile fields. Nil means "leave as is".
type UserUpdate struct {
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// UserRef identifies a user inside a group without carrying credentials.
type UserRef struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Identity binds a resolved user to the token string it was resolved from,
// so the consuming workflow can redeem that exact credential.
type Identity struct {
	User  User
	Token string
}
