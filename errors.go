package otree

import "fmt"

type Error interface {
	// returns true if the error is fatal
	IsFatal() bool
	// and anything else that is needed to be an error
	error
}

// ParameterError is returned when a container is constructed or called with an invalid parameter.
type ParameterError struct {
	msg string
}

// NewParameterError constructs a ParameterError
func NewParameterError(msg string) *ParameterError {
	return &ParameterError{msg: msg}
}

// NewParameterErrorf constructs a ParameterError with a formatted message
func NewParameterErrorf(msg string, args ...interface{}) *ParameterError {
	return &ParameterError{msg: fmt.Sprintf(msg, args...)}
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter: %s", e.msg)
}

// IsFatal returns true if the error is fatal
func (e *ParameterError) IsFatal() bool {
	return true
}

// KeyTypeError is returned when a key is not an integer, a string, a byte slice,
// or a Hashable value.
type KeyTypeError struct {
	key interface{}
}

// NewKeyTypeError constructs a KeyTypeError
func NewKeyTypeError(key interface{}) *KeyTypeError {
	return &KeyTypeError{key: key}
}

func (e *KeyTypeError) Error() string {
	return fmt.Sprintf("key of type %T cannot be hashed", e.key)
}

// IsFatal returns true if the error is fatal
func (e *KeyTypeError) IsFatal() bool {
	return true
}

// InconsistentStateError is returned when the two halves of a composite container
// disagree about an entry. It indicates a programmer error or corruption.
type InconsistentStateError struct {
	msg string
}

// NewInconsistentStateError constructs an InconsistentStateError
func NewInconsistentStateError(msg string, args ...interface{}) *InconsistentStateError {
	return &InconsistentStateError{msg: fmt.Sprintf(msg, args...)}
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("container state is inconsistent: %s", e.msg)
}

// IsFatal returns true if the error is fatal
func (e *InconsistentStateError) IsFatal() bool {
	return true
}

// HashError is a fatal error returned when hash calculation fails
type HashError struct {
	err error
}

// NewHashError constructs a HashError
func NewHashError(err error) *HashError {
	return &HashError{err: err}
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hasher failed: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *HashError) IsFatal() bool {
	return true
}

// Unwrap returns the wrapped err
func (e *HashError) Unwrap() error {
	return e.err
}

// CompareError is a fatal error returned when a comparator cannot order two values.
type CompareError struct {
	a interface{}
	b interface{}
}

// NewCompareError constructs a CompareError
func NewCompareError(a, b interface{}) *CompareError {
	return &CompareError{a: a, b: b}
}

func (e *CompareError) Error() string {
	return fmt.Sprintf("values of type %T and %T cannot be ordered", e.a, e.b)
}

// IsFatal returns true if the error is fatal
func (e *CompareError) IsFatal() bool {
	return true
}

// EncodingError is returned when container state cannot be encoded.
type EncodingError struct {
	err error
}

// NewEncodingError constructs an EncodingError
func NewEncodingError(err error) *EncodingError {
	return &EncodingError{err: err}
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode container: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *EncodingError) IsFatal() bool {
	return true
}

// Unwrap returns the wrapped err
func (e *EncodingError) Unwrap() error {
	return e.err
}

// DecodingError is returned when encoded container state is malformed.
type DecodingError struct {
	err error
}

// NewDecodingError constructs a DecodingError
func NewDecodingError(err error) *DecodingError {
	return &DecodingError{err: err}
}

// NewDecodingErrorf constructs a DecodingError with a formatted message
func NewDecodingErrorf(msg string, args ...interface{}) *DecodingError {
	return &DecodingError{err: fmt.Errorf(msg, args...)}
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("failed to decode container: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *DecodingError) IsFatal() bool {
	return true
}

// Unwrap returns the wrapped err
func (e *DecodingError) Unwrap() error {
	return e.err
}
