package domain

// Severity classifies a user-facing notification.
type Severity string

const (
	SeverityNormal      Severity = "normal"
	SeverityDestructive Severity = "destructive"
)

// Notification is a user-visible message rendered by the client.
type Notification struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
}

// SignOutStatus tags the outcome of a sign-out attempt.
type SignOutStatus int

const (
	SignOutOK SignOutStatus = iota
	SignOutReportedError
	SignOutUnexpectedError
)

// SignOutOutcome is the tagged result of a sign-out attempt. Message holds
// the provider-supplied text for reported failures and is empty otherwise.
type SignOutOutcome struct {
	Status  SignOutStatus
	Message string
}

// Redirect tells the client where to navigate after a successful sign-out.
// RefreshView instructs it to discard cached authenticated state.
type Redirect struct {
	Path        string `json:"path"`
	RefreshView bool   `json:"refreshView"`
}

// SignOutResult bundles the outcome with the feedback directives the client
// executes: a notification on every outcome, a redirect on success only.
type SignOutResult struct {
	Outcome      SignOutOutcome
	Notification Notification
	Redirect     *Redirect
}
