package model

// CreateSessionRequest starts a proctored exam session for a stored test.
// GracePeriod selects the fullscreen-exit grace variant; without it an exit
// terminates the session unconditionally.
type CreateSessionRequest struct {
	TestID      string `json:"test_id" binding:"required,uuid"`
	GracePeriod bool   `json:"grace_period"`
}
