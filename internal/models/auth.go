package models

// Principal identifies the logged-in user as reported by the auth service.
type Principal struct {
	ID   string `json:"userid"`
	Role string `json:"role"`
}

// User is an administrable account, managed by admins through the users API.
type User struct {
	ID        string `json:"userid"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}
