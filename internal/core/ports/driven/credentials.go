package driven

// CredentialsProvider resolves the API key used for all network
// collaborators. Absence is a fatal precondition for network work.
type CredentialsProvider interface {
	// APIKey returns the resolved key or domain.ErrNoCredentials.
	APIKey() (string, error)
}
