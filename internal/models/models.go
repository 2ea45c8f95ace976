package models

/*** REST payloads ***/

type RoomCreateResponse struct {
	RoomID  string `json:"room_id"`
	JoinURL string `json:"join_url"`
	WSURL   string `json:"ws_url"`
}

type RoomExistsResponse struct {
	Exists bool   `json:"exists"`
	RoomID string `json:"room_id"`
}

type AutocompleteRequest struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursor_position"`
	Language       string `json:"language"`
}

type AutocompleteResponse struct {
	Suggestion     string `json:"suggestion"`
	InsertPosition int    `json:"insert_position"`
	TriggerWord    string `json:"trigger_word,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

/*** WebSocket protocol ***/

// CursorPosition is one user's caret: 1-based line, 0-based column.
type CursorPosition struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Color  string `json:"color"`
}

// ClientMessage is the envelope for everything a client may send.
// Only the fields matching Type carry meaning.
type ClientMessage struct {
	Type   string `json:"type"` // "code_update","cursor_move"
	Code   string `json:"code"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// InitMessage seeds a freshly connected client with full room state.
type InitMessage struct {
	Type       string                    `json:"type"`
	Code       string                    `json:"code"`
	Users      []string                  `json:"users"`
	Cursors    map[string]CursorPosition `json:"cursors"`
	YourUserID string                    `json:"your_user_id"`
	YourColor  string                    `json:"your_color"`
}

type CodeUpdateMessage struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

type CursorMoveMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Color  string `json:"color"`
}

type UserJoinedMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Color  string `json:"color"`
}

type UserLeftMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}
