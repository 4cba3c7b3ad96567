package consult

import "github.com/abhisek/medsim/internal/session"

// startedMsg is sent when the engine has opened the session.
type startedMsg struct {
	Result *session.StartResult
	Err    error
}

// replyMsg carries the outcome of one operator message.
type replyMsg struct {
	Result *session.ChatResult
	Err    error
}

// hintMsg carries a delivered hint.
type hintMsg struct {
	Result *session.HintResult
	Err    error
}

// revealMsg carries a declassified objective.
type revealMsg struct {
	Result *session.RevealResult
	Err    error
}
