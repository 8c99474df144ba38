package models

// UserDB represents a user record in the database
type UserDB struct {
	UserID    int64  `json:"id" db:"user_id"`          // Primary key, assigned sequentially
	Username  string `json:"username" db:"username"`   // Unique username
	AuthToken string `json:"token" db:"auth_token"`    // Token derived from the password at registration
}
