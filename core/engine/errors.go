package engine

// ForbiddenError rejects a document write. Message is the structured payload
// the host platform surfaces to the writer.
type ForbiddenError struct {
	Message string
	Err     error
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func (e *ForbiddenError) Unwrap() error {
	return e.Err
}

// ErrUnknownDocumentType rejects a write that no document-type predicate
// claimed.
var ErrUnknownDocumentType = &ForbiddenError{Message: "Unknown document type"}
