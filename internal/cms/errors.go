package cms

import "errors"

// Sentinel errors for CMS integrations.
var (
	// ErrUnsupportedProvider indicates no adapter is registered for the
	// connection's provider identifier.
	ErrUnsupportedProvider = errors.New("unsupported CMS provider")

	// ErrPublishFailed indicates the provider rejected or failed the
	// publish call.
	ErrPublishFailed = errors.New("CMS publish failed")

	// ErrTriggerUpdateFailed indicates a trigger status update was rejected.
	ErrTriggerUpdateFailed = errors.New("CMS trigger update failed")
)
