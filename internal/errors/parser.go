package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorInfo is a client-safe error code and message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a persistence or runtime error into a client-safe
// code and message. context names the operation, e.g. "order".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "An unexpected error occurred"}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// postgres 23505 and sqlite UNIQUE failures
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record does not exist"}
	}

	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A dependent service is unavailable, please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
	case strings.Contains(errLower, "username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "Username is already taken"}
	case strings.Contains(errLower, "order_number"):
		return ErrorInfo{Code: ResourceConflict, Message: "Order number already issued, please retry"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Record already exists"}
}

func notFoundMessage(context string) string {
	if context == "" {
		return "Resource not found"
	}
	return fmt.Sprintf("%s not found", strings.ToUpper(context[:1])+context[1:])
}

func defaultErrorMessage(context string) string {
	if context == "" {
		return "An unexpected error occurred, please try again later"
	}
	return fmt.Sprintf("Failed to process %s, please try again later", context)
}

var (
	// postgres: null value in column "customer_name" of relation "orders" violates not-null constraint
	pgNotNullColumn = regexp.MustCompile(`column "([a-z0-9_]+)"`)
	// sqlite: NOT NULL constraint failed: orders.customer_name, UNIQUE constraint failed: users.email
	sqliteColumn = regexp.MustCompile(`constraint failed: [a-z0-9_]+\.([a-z0-9_]+)`)
	// postgres: duplicate key value violates unique constraint "idx_users_email"
	pgUniqueIndex = regexp.MustCompile(`unique constraint "idx_[a-z0-9]+_([a-z0-9_]+)"`)
)

// FieldErrors extracts a per-field message map from validator and database
// constraint errors. It returns nil when nothing field-specific is known.
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = validationMessage(fe)
		}
		return fields
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not null constraint failed") || strings.Contains(lower, "not-null constraint"):
		if col := firstMatch(sqliteColumn, lower, pgNotNullColumn); col != "" {
			return map[string]string{toCamel(col): fmt.Sprintf("%s is required", toCamel(col))}
		}
	case strings.Contains(lower, "unique constraint"):
		if col := firstMatch(sqliteColumn, lower, pgUniqueIndex); col != "" {
			return map[string]string{toCamel(col): fmt.Sprintf("%s must be unique", toCamel(col))}
		}
	}
	return nil
}

func firstMatch(primary *regexp.Regexp, s string, fallback *regexp.Regexp) string {
	if m := primary.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	if m := fallback.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	return ""
}

// fieldName reports the path of the failing field with the struct's own
// top level name dropped, e.g. "orderItems[0].quantity".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min", "gte":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func toCamel(snake string) string {
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
