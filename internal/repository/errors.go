package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation (SQL, NoSQL, etc.)
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a uniqueness rule, such as a
// second incident for the same vote or a second appeal for the same incident.
var ErrDuplicate = errors.New("record already exists")

// ErrAlreadyDecided is returned when deciding an appeal that is no longer pending.
var ErrAlreadyDecided = errors.New("appeal already decided")

// ErrInvalidTable is returned when attempting to clear a table that is not whitelisted.
// This prevents SQL injection attacks.
var ErrInvalidTable = errors.New("invalid table name")
