package domain

// Member is a connection currently bound to a room, with its display name.
type Member struct {
	ConnectionID string `json:"connectionId"`
	RoomID       string `json:"roomId"`
	Username     string `json:"username"`
}

// Departure describes a member removed from a room. MemberCount is the number
// of members left behind.
type Departure struct {
	RoomID      string `json:"roomId"`
	Username    string `json:"username"`
	MemberCount int    `json:"memberCount"`
}
