package validator

// Validator validates a struct and returns a V10ValidationError (or another
// error for programming mistakes such as passing a non-struct).
type Validator interface {
	Validate(data any) error
}
