package domain

// ConversationState is the state of the interactive Q&A session held
// between the structure analysis and plan confirmation.
type ConversationState string

// Valid conversation states. The session starts awaiting a question,
// moves to answering while an LLM call is in flight, and returns to
// awaiting until the user ends it.
const (
	ConversationAwaitingQuestion ConversationState = "awaiting_question"
	ConversationAnswering        ConversationState = "answering"
	ConversationDone             ConversationState = "done"
)

// Exchange is one question/answer pair of the session transcript.
type Exchange struct {
	Question string
	Answer   string
}
