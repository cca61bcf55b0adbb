package users

// Repo is the credential store. The production store is an external collaborator; the
// in-memory implementation lives in repofake.
type Repo interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	GetByResetToken(token string) (*User, error)
	SetStatus(id string, status Status) error
}
