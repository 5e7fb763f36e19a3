package service

import (
	"errors"

	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
)

var ErrNotFound = repository.ErrNotFound

// Validation errors.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidStage       = errors.New("invalid stage")
	ErrInvalidMilestone   = errors.New("unknown milestone")
	ErrDropNotConfirmed   = errors.New("drop must be confirmed")
	ErrReasonRequired     = errors.New("drop reason is required")
	ErrInvalidDroppedType = errors.New("dropped type must be lead or active")
)

// State conflicts.
var (
	ErrNotClosed        = errors.New("lead is not in the closed stage")
	ErrAlreadyConverted = errors.New("lead is already converted")
	ErrHasActiveClient  = errors.New("lead has an active client, drop the client first")
	ErrInvalidSnapshot  = errors.New("dropped record snapshot cannot be restored")
)
