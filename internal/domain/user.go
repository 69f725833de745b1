package domain

// User is the external account record this core reads; identity lifecycle is
// owned elsewhere.
type User struct {
	ID       string
	UserName string
	Email    string
}
