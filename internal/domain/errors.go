package domain

import "errors"

var (
	// ErrInvalidAnswerInput is returned when an answer arrives out of sequence or names an unknown option.
	ErrInvalidAnswerInput = errors.New("invalid answer input")
	// ErrNoQuestionsAvailable indicates the question source holds no valid questions.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrSessionNotFound is returned when a quiz session does not exist or has expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotStarted is returned when a session is used before questions were loaded.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionCompleted is returned when a finished session receives another answer.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrSessionStarted is returned when Start is called twice on a session.
	ErrSessionStarted = errors.New("quiz session already started")
	// ErrInvalidUserID indicates an empty player identity.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidSummary indicates an attempt summary that cannot have come from a real session.
	ErrInvalidSummary = errors.New("invalid attempt summary")
	// ErrRecordNotFound is returned when no record exists for a user.
	ErrRecordNotFound = errors.New("user record not found")
	// ErrVersionConflict is returned by repositories when a conditional upsert loses a race.
	ErrVersionConflict = errors.New("user record version conflict")
	// ErrPersistence matches every PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError reports an I/O failure against the record store.
type PersistenceError struct {
	Op     string
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return "persist " + e.Op + " for " + e.UserID + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets callers match any persistence failure with errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
