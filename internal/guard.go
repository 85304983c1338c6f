package internal

// View is a screen of the client
type View string

const (
	ViewUpload View = "upload"
	ViewChat   View = "chat"
)

// Guard gates entry to the conversation view on an established session.
// It only consults the local store; the server is not asked whether the
// session is still valid.
type Guard struct {
	store *SessionStore
}

// NewGuard creates a guard reading store
func NewGuard(store *SessionStore) *Guard {
	return &Guard{store: store}
}

// Resolve returns the view navigation to target actually lands on: the chat
// view without a session redirects to the upload view.
func (g *Guard) Resolve(target View) View {
	if target == ViewChat && !g.store.HasSession() {
		LogDebug("No session, redirecting %s to %s", ViewChat, ViewUpload)
		return ViewUpload
	}
	return target
}
