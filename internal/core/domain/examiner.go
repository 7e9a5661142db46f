package domain

// Examiner is the authenticated operator of the admin routes.
type Examiner struct {
	Username string `json:"username"`
}
