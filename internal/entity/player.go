package entity

type Player struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Symbol    string `json:"symbol"`
	SessionID string `json:"sessionId,omitempty"`
}
