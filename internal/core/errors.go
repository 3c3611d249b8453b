package core

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeNotLoggedIn       = "not_logged_in"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodeNotYourTurn       = "not_your_turn"
	ErrCodeInvalidMove       = "invalid_move"
	ErrCodeNoActiveGame      = "no_active_game"
	ErrCodeCannotSwap        = "cannot_swap"
	ErrCodeNeedTwoPlayers    = "need_two_players"
	ErrCodeAlreadyInProgress = "already_in_progress"
	ErrCodeGameInProgress    = "game_in_progress"
	ErrCodeAnalysisFailed    = "analysis_failed"
	ErrCodeInternal          = "internal"
)

// Rejections share one instance per kind so callers can match with errors.Is.
var (
	ErrRoomNotFound      = coreError(ErrCodeRoomNotFound, "Room not found")
	ErrBadRequest        = coreError(ErrCodeBadRequest, "Bad request")
	ErrNotLoggedIn       = coreError(ErrCodeNotLoggedIn, "Not logged in")
	ErrNotInRoom         = coreError(ErrCodeNotInRoom, "Not in a room")
	ErrNotYourTurn       = coreError(ErrCodeNotYourTurn, "Not your turn")
	ErrInvalidMove       = coreError(ErrCodeInvalidMove, "Invalid move")
	ErrNoActiveGame      = coreError(ErrCodeNoActiveGame, "No active game")
	ErrCannotSwap        = coreError(ErrCodeCannotSwap, "Cannot swap during game")
	ErrNeedTwoPlayers    = coreError(ErrCodeNeedTwoPlayers, "Need two players")
	ErrAlreadyInProgress = coreError(ErrCodeAlreadyInProgress, "Game already in progress")
	ErrGameInProgress    = coreError(ErrCodeGameInProgress, "Cannot change settings during game")
	ErrAnalysisFailed    = coreError(ErrCodeAnalysisFailed, "Analysis failed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
