package user

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Player struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	Role         string    `json:"role" bson:"role"`
	TokenBalance float64   `json:"token_balance" bson:"token_balance"`
	TotalScore   float64   `json:"total_score" bson:"total_score"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
	PasswordHash string    `json:"-" bson:"password_hash"`
}

// LeaderboardEntry is the public projection of a player for ranking queries.
type LeaderboardEntry struct {
	Username   string  `json:"username"`
	TotalScore float64 `json:"total_score"`
}
