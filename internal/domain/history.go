package domain

// ChatSummary is one entry of the backend-owned chat history list.
type ChatSummary struct {
	ID               string `json:"id"`
	UserMessage      string `json:"user_message"`
	PrimaryDisease   string `json:"primary_disease"`
	SecondaryDisease string `json:"secondary_disease"`
}

// ChatDetail is the stored content of one completed diagnosis turn.
type ChatDetail struct {
	UserMessage          string   `json:"user_message"`
	BotResponse          string   `json:"bot_response"`
	PrimaryDisease       string   `json:"primary_disease"`
	PrimaryDescription   string   `json:"primary_description"`
	PrimaryPrecautions   []string `json:"primary_precautions"`
	SecondaryDisease     string   `json:"secondary_disease"`
	SecondaryDescription string   `json:"secondary_description"`
	SecondaryPrecautions []string `json:"secondary_precautions"`
}

// NewSession is the backend reply to a new chat request.
type NewSession struct {
	NewSession bool   `json:"new_session"`
	SessionID  string `json:"session_id"`
}
