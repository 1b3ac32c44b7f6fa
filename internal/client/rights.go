package client

// Right is a named capability held by a room participant; mutating
// whiteboard actions are checked against these before they run.
type Right string

const (
	RightModerator  Right = "moderator"
	RightPresenter  Right = "presenter"
	RightWhiteboard Right = "whiteboard"
	RightAudio      Right = "audio"
	RightVideo      Right = "video"
)
