package embedinator

import "errors"

// Validation errors are reported by the registration call that caused them;
// a builder session cannot recover from one, the input has to be fixed.
var (
	// ErrDuplicateKey means a resource with the same type, name and
	// language was already registered.
	ErrDuplicateKey = errors.New("duplicate resource key")

	// ErrInvalidResource means the payload is unusable, e.g. empty.
	ErrInvalidResource = errors.New("invalid resource payload")

	// ErrEmptyIcon means an icon without any frames was registered.
	ErrEmptyIcon = errors.New("icon contains no frames")

	// ErrIconTooLarge means a frame's encoded size does not fit the
	// 32-bit size field of the icon group directory.
	ErrIconTooLarge = errors.New("icon frame too large")
)
