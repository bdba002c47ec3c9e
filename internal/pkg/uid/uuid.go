package uid

import "github.com/google/uuid"

// UUID generates RFC 9562 UUID strings. Version 7 ids are time ordered and
// suit log correlation; version 4 ids are fully random and suit bearer
// values such as session ids.
type UUID struct {
	random bool
}

// NewUUID returns a version 7 generator.
func NewUUID() *UUID {
	return &UUID{}
}

// NewRandomUUID returns a version 4 generator.
func NewRandomUUID() *UUID {
	return &UUID{random: true}
}

func (u *UUID) Generate() string {
	if u.random {
		return uuid.NewString()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
