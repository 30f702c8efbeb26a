package catalog

import "errors"

var (
	// ErrDuplicateName is returned when an entity name is already taken in its collection.
	ErrDuplicateName = errors.New("catalog: duplicate name")
	// ErrTypeMismatch is returned when an entity of the wrong kind is added to a collection.
	ErrTypeMismatch = errors.New("catalog: type mismatch")
	// ErrNotFound is returned when a product or variant lookup misses.
	ErrNotFound = errors.New("catalog: not found")
	// ErrReservedCharacter is returned when a name contains the token separator.
	ErrReservedCharacter = errors.New("catalog: reserved character in name")
	// ErrEmptyName is returned for blank entity names.
	ErrEmptyName = errors.New("catalog: empty name")
	// ErrNegativePrice is returned for variants priced below zero.
	ErrNegativePrice = errors.New("catalog: negative price")
	// ErrSealed is returned when a sealed catalog is modified.
	ErrSealed = errors.New("catalog: sealed")
)
