package config

import (
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dns-browser/dns-browser/src/internal/utils"
)

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "ip":
		return "must be a valid IP address"
	case "ipv4_or_empty":
		return "must be an IPv4 address or empty (OS default)"
	case "hostport_or_empty":
		return "must be in format 'host:port' or empty"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string `json:"item_name,omitempty"` // DNS server name, if the error belongs to an entry
	FieldPath string `json:"field"`               // Dot-notation field path (e.g., "dns_server.1.host")
	Message   string `json:"message"`             // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("ipv4_or_empty", validateIPv4OrEmpty); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("hostport_or_empty", validateHostPortOrEmpty); err != nil {
		panic(err)
	}

	// Register function to get field name from "toml" tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: IPv4 literal or empty
func validateIPv4OrEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || utils.IsIPv4(value)
}

// Custom validator: host:port format or empty
func validateHostPortOrEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, port, err := net.SplitHostPort(value)
	return err == nil && utils.IsValidPort(port)
}

// convertValidatorErrors converts validator errors to ValidationErrors
func convertValidatorErrors(err error, pathPrefix string, itemName string) ValidationErrors {
	var result ValidationErrors

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{ItemName: itemName, FieldPath: pathPrefix, Message: err.Error()}}
	}

	for _, e := range validationErrs {
		fieldPath := e.Field()
		if pathPrefix != "" {
			fieldPath = pathPrefix + "." + fieldPath
		}
		result = append(result, ValidationError{
			ItemName:  itemName,
			FieldPath: fieldPath,
			Message:   getValidationMessage(e),
		})
	}
	return result
}
