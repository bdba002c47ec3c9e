// Package validator validates request and domain structs through struct
// tags. Usecases depend on the Validator interface; V10Validator is the
// go-playground/validator implementation with English messages.
package validator
