package constant

const (
	ChatMessageTypeUser = "user"
	ChatMessageTypeBot  = "bot"

	// UntitledSessionTitle is used until the first user message arrives.
	UntitledSessionTitle = "Untitled Chat"

	// SessionTitleMaxLength is the truncation point for derived titles.
	SessionTitleMaxLength = 50

	// Guard and failure texts surfaced as bot messages.
	IngestFirstMessage   = "Please upload a document or load a URL before asking a question."
	AnswerFailureMessage = "Sorry, something went wrong while answering your question. Please try again."

	// Default watermill topic carrying session activity.
	SessionActivityTopicName = "CHAT_SESSION_ACTIVITY"

	SessionActivityCreated = "SESSION_CREATED"
	SessionActivityUpdated = "SESSION_UPDATED"
	SessionActivityDeleted = "SESSION_DELETED"
	SessionActivityCleared = "SESSIONS_CLEARED"
)

// AllowedUploadExtensions whitelists ingestable document types.
var AllowedUploadExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
}
