package service

import "errors"

var (
	ErrValidation         = errors.New("request body failed validation")
	ErrNotFound           = errors.New("resource not found")
	ErrOwnerNotFound      = errors.New("referenced owner not found")
	ErrDuplicate          = errors.New("duplicate resource")
	ErrOwnershipMismatch  = errors.New("ownership linkage mismatch")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
