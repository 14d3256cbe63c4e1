package persistence

import (
	"errors"
)

var (
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrFactoryClosed is returned when creating a session from a closed factory.
	ErrFactoryClosed = errors.New("factory is closed")
	// ErrTransactionRequired is returned by operations that need an active transaction.
	ErrTransactionRequired = errors.New("no active transaction")
	// ErrTransactionActive is returned by Begin while a transaction is already active.
	ErrTransactionActive = errors.New("transaction already active")
	// ErrNotManaged is returned when an entity is not managed by the session.
	ErrNotManaged = errors.New("entity is not managed by this session")
	// ErrDetachedEntity is returned when a detached entity is passed to Persist.
	ErrDetachedEntity = errors.New("detached entity passed to persist")
	// ErrRemovedEntity is returned when a removed entity is passed to Merge.
	ErrRemovedEntity = errors.New("removed entity passed to merge")
	// ErrEntityExists is returned when another instance with the same identifier is
	// already managed by the session.
	ErrEntityExists = errors.New("an entity with the same identifier is already managed")
	// ErrEntityNotFound is returned by Find when no row has the identifier.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrUnknownEntity is returned for entity names or types without a mapping.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrNotNullViolation is returned by flush when a NOT NULL attribute holds no value.
	ErrNotNullViolation = errors.New("not-null attribute references a null value")
	// ErrSchemaValidation is returned when the live schema does not match the mappings.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrMissingIdentifier is returned when an entity with an assigned identifier has none.
	ErrMissingIdentifier = errors.New("identifier must be assigned before persist")
)
