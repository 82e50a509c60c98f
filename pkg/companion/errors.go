package companion

import (
	"errors"
	"fmt"
)

// ErrConversationNotFound is returned for operations on a conversation with
// no live session.
var ErrConversationNotFound = errors.New("conversation not found")

// InputError rejects a message before analysis. No state is changed.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Reason)
}
