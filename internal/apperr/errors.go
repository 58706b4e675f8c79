package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError covers absent entities, changes and edits.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// DuplicateNodeError: the node already has a self-edge in the closure table.
type DuplicateNodeError struct {
	ID uuid.UUID
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("tree node %s already exists", e.ID)
}

func IsDuplicateNode(err error) bool {
	var e *DuplicateNodeError
	return errors.As(err, &e)
}

// ParentNotFoundError: the requested parent has no self-edge.
type ParentNotFoundError struct {
	ParentID uuid.UUID
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("tree parent %s not found", e.ParentID)
}

func IsParentNotFound(err error) bool {
	var e *ParentNotFoundError
	return errors.As(err, &e)
}

// WouldCreateCycleError: moving a subtree under one of its own descendants.
type WouldCreateCycleError struct {
	SourceID      uuid.UUID
	DestinationID uuid.UUID
}

func (e *WouldCreateCycleError) Error() string {
	return fmt.Sprintf("moving %s under %s would create a cycle", e.SourceID, e.DestinationID)
}

func IsWouldCreateCycle(err error) bool {
	var e *WouldCreateCycleError
	return errors.As(err, &e)
}

// InvalidTransitionError: illegal change status transition, including merging
// a change that is not approved.
type InvalidTransitionError struct {
	ChangeID uuid.UUID
	From     string
	To       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("change %s cannot move from %s to %s", e.ChangeID, e.From, e.To)
}

func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

// ChangeNotEditableError: edit attempted on a change that is no longer open.
type ChangeNotEditableError struct {
	ChangeID uuid.UUID
	Status   string
}

func (e *ChangeNotEditableError) Error() string {
	return fmt.Sprintf("change %s is %s and cannot be edited", e.ChangeID, e.Status)
}

func IsChangeNotEditable(err error) bool {
	var e *ChangeNotEditableError
	return errors.As(err, &e)
}

// UnknownEntityError: entity name with no registered snapshot provider.
type UnknownEntityError struct {
	EntityName string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity type %q", e.EntityName)
}

func IsUnknownEntity(err error) bool {
	var e *UnknownEntityError
	return errors.As(err, &e)
}

// ValidationError: a field document that the target entity schema rejects.
type ValidationError struct {
	EntityName string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s input: %s", e.EntityName, e.Reason)
	}
	return fmt.Sprintf("invalid %s field %q: %s", e.EntityName, e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
