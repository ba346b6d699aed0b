package model

// MailboxCursor is the per-user mailbox ingestion watermark. LastUID is
// monotonically non-decreasing and only advances after a whole discovery
// batch has been dispatched.
type MailboxCursor struct {
	UserID           int
	Enabled          bool
	Host             string
	Port             int
	Username         string
	CredentialSealed []byte
	Folder           string
	LastUID          int64
}
