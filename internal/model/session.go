package model

// Session is the public projection of the currently signed-in account.
// At most one session exists at a time; a second register or login simply
// overwrites it.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  Plan   `json:"plan"`
}

// NewSession builds the session projection for an account.
func NewSession(a *Account) *Session {
	return &Session{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Plan:  a.Plan,
	}
}
