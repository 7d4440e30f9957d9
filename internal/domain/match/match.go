package match

import "time"

const (
	AILevelEasy    = "easy"
	AILevelNormal  = "normal"
	AILevelHard    = "hard"
	AILevelExtreme = "extreme"
)

// SearchDepth maps a difficulty level to its bounded search depth.
// Easy is not searched at all (random legal move).
var SearchDepth = map[string]int{
	AILevelNormal:  3,
	AILevelHard:    5,
	AILevelExtreme: 7,
}

func ValidAILevel(level string) bool {
	if level == AILevelEasy {
		return true
	}
	_, ok := SearchDepth[level]
	return ok
}

type Match struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Player1ID string    `json:"player1_id" bson:"player1_id"`
	Player2ID string    `json:"player2_id,omitempty" bson:"player2_id,omitempty"`
	AILevel   string    `json:"ai_level,omitempty" bson:"ai_level,omitempty"`
	MatchType string    `json:"match_type" bson:"match_type"`
	Status    string    `json:"status" bson:"status"`
	Board     string    `json:"board" bson:"board"`
	MoveCount int       `json:"move_count" bson:"move_count"`
	WinnerID  string    `json:"winner_id,omitempty" bson:"winner_id,omitempty"`
	StartedAt time.Time `json:"started_at" bson:"started_at"`
}

// IsAgainstAI reports whether the match was created against the bot opponent.
func (m Match) IsAgainstAI() bool {
	return m.AILevel != ""
}

func (m Match) IsParticipant(playerID string) bool {
	if playerID == "" {
		return false
	}
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// MoveRecord is one applied half-turn. Records are append-only; AI moves are
// kept in a parallel collection with an empty PlayerID.
type MoveRecord struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	MatchID   string    `json:"match_id" bson:"match_id"`
	Seq       int       `json:"seq" bson:"seq"`
	PlayerID  string    `json:"player_id,omitempty" bson:"player_id,omitempty"`
	Color     string    `json:"color" bson:"color"`
	From      string    `json:"from" bson:"from"`
	To        string    `json:"to" bson:"to"`
	Piece     string    `json:"piece" bson:"piece"`
	Captured  bool      `json:"captured" bson:"captured"`
	Promoted  bool      `json:"promoted" bson:"promoted"`
	Board     string    `json:"board" bson:"board"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type CreateMatchRequest struct {
	OpponentEmail string `json:"opponent_email,omitempty"`
	MatchType     string `json:"match_type"`
	AILevel       string `json:"ai_level,omitempty"`
}

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MoveResponse struct {
	Description   string `json:"description"`
	AIDescription string `json:"ai_description,omitempty"`
	Status        string `json:"status"`
	WinnerID      string `json:"winner_id,omitempty"`
	Board         string `json:"board"`
}

type AbandonResponse struct {
	Description string `json:"description"`
	WinnerID    string `json:"winner_id,omitempty"`
}

// MatchSummary annotates a finished match with the outcome relative to the
// player who asked for the listing.
type MatchSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	MatchType string    `json:"match_type"`
	Outcome   string    `json:"outcome"` // "won" or "lost"
	MoveCount int       `json:"move_count"`
	StartedAt time.Time `json:"started_at"`
}
