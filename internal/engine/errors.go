package engine

import "fmt"

// AppError is the typed failure surfaced to the route layer. Status is
// the HTTP translation; the body carries msg and code.
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"msg"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func BadRequestError(msg string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Status: 400, Message: msg}
}

// NoFieldsError rejects an update whose body contains no allow-listed
// field. Creates with an empty write set succeed instead; the asymmetry
// is part of the contract.
func NoFieldsError() *AppError {
	return &AppError{Code: "NO_FIELDS", Status: 400, Message: "No fields to update"}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func NotFoundError(entity string, id any) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %v not found", entity, id),
	}
}

func UnknownEntityError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTITY",
		Status:  404,
		Message: fmt.Sprintf("Unknown entity: %s", name),
	}
}

func ConflictError(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}
