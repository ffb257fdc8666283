package accounts

import "github.com/pliu/nexuschat/internal/apperr"

var (
	ErrDuplicateHandle = apperr.AlreadyExists("an account with this handle already exists")
	ErrInvalidHandle   = apperr.InvalidArg("handle must start with @ and be 3-20 characters long")
	ErrWeakCredential  = apperr.InvalidArg("password must be at least 6 characters long")
	ErrHandleTaken     = apperr.AlreadyExists("handle is already taken")
	ErrWrongCredential = apperr.Unauthenticated("wrong password")
	ErrNotFound        = apperr.NotFound("account not found")
)
