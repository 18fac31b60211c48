package interview

// State is the conversation state for a single question.
type State string

// Conversation states. COMPLETE and ERROR are terminal; a COMPLETE context
// may be reused for the next question via StartTurn.
const (
	StateIdle       State = "IDLE"
	StateAsking     State = "ASKING"
	StateWaiting    State = "WAITING_FOR_RESPONSE"
	StateValidating State = "VALIDATING"
	StateComplete   State = "COMPLETE"
	StateErrored    State = "ERROR"
)

// Context holds the mutable state for one question's quality loop: the
// transcript so far, the attempt counter, and the best answer seen. It is
// created per question and discarded once the question resolves.
type Context struct {
	SessionID   string
	StageNumber int
	Question    string
	History     []Message
	Attempts    int
	MaxAttempts int

	state State

	// Best answer observed so far, for escalation. Ties on score prefer the
	// most recent answer: the user has seen the feedback since.
	bestAnswer string
	bestScore  int
}

// NewContext creates an idle conversation context for one question slot.
func NewContext(sessionID string, stageNumber, maxAttempts int) *Context {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Context{
		SessionID:   sessionID,
		StageNumber: stageNumber,
		MaxAttempts: maxAttempts,
		state:       StateIdle,
		bestScore:   -1,
	}
}

// State returns the current conversation state.
func (c *Context) State() State {
	return c.state
}

// append records a message on the transcript.
func (c *Context) append(role, content string) {
	c.History = append(c.History, newMessage(role, content))
}

// observe records an answer and its score, keeping the best (most recent on
// ties) for escalation.
func (c *Context) observe(answer string, score int) {
	if score >= c.bestScore {
		c.bestAnswer = answer
		c.bestScore = score
	}
}

// best returns the highest-scoring answer observed and its score.
func (c *Context) best() (string, int) {
	return c.bestAnswer, c.bestScore
}

// fail moves the context to the terminal ERROR state.
func (c *Context) fail() {
	c.state = StateErrored
}
