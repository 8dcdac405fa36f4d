// Package validation checks incoming JSON-LD documents before they are
// stored.
//
// Documents are checked in three steps:
//
//  1. JSON parsing - Ensures valid JSON syntax
//  2. JSON-LD validation - @context, @type and @id are present and the
//     document expands
//  3. Struct validation - go-playground/validator tags on the models
//
// # Usage Example
//
//	v := validation.New()
//	var host models.Host
//	if result := v.Decode(data, &host); !result.Valid {
//	    for _, err := range result.Errors {
//	        fmt.Printf("%s: %s\n", err.Field, err.Message)
//	    }
//	}
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/piprate/json-gold/ld"

	"evalgo.org/graphapi/models"
)

// schemaOrgContext stands in for the remote schema.org context so that
// expansion never goes to the network for it.
var schemaOrgContext = map[string]interface{}{
	"@context": map[string]interface{}{
		"@vocab": "https://schema.org/",
	},
}

// Validator handles JSON-LD document validation.
type Validator struct {
	structValidator *validator.Validate
	jsonldProcessor *ld.JsonLdProcessor
	jsonldOptions   *ld.JsonLdOptions
}

// ValidationError represents a single validation error with field-level details.
type ValidationError struct {
	// Field is the JSON name of the field that failed validation
	Field string `json:"field"`

	// Message describes why the validation failed
	Message string `json:"message"`

	// Value is the invalid value that caused the error (optional)
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult represents the complete result of a validation operation.
type ValidationResult struct {
	// Valid is true if validation passed, false otherwise
	Valid bool `json:"valid"`

	// Errors contains all validation errors found (empty if Valid is true)
	Errors []ValidationError `json:"errors,omitempty"`
}

// New creates a Validator. Field errors are reported under JSON names.
func New() *Validator {
	sv := validator.New(validator.WithRequiredStructEnabled())
	sv.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	loader := ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(nil))
	for _, u := range []string{"https://schema.org", "https://schema.org/", "http://schema.org", "http://schema.org/"} {
		loader.AddDocument(u, schemaOrgContext)
	}
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = loader

	return &Validator{
		structValidator: sv,
		jsonldProcessor: ld.NewJsonLdProcessor(),
		jsonldOptions:   opts,
	}
}

// Decode validates data and, when it parses, unmarshals it into out, which
// must be a pointer to a model struct.
func (v *Validator) Decode(data []byte, out any) *ValidationResult {
	if err := json.Unmarshal(data, out); err != nil {
		return invalid(ValidationError{Field: "document", Message: fmt.Sprintf("Invalid JSON: %v", err)})
	}

	errs := v.validateJSONLD(data)
	errs = append(errs, v.validateStruct(out)...)
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateHost validates a host JSON-LD document
func (v *Validator) ValidateHost(data []byte) (*ValidationResult, error) {
	return v.Decode(data, &models.Host{}), nil
}

// ValidateContainer validates a container JSON-LD document
func (v *Validator) ValidateContainer(data []byte) (*ValidationResult, error) {
	return v.Decode(data, &models.Container{}), nil
}

// ValidateStack validates a stack JSON-LD document
func (v *Validator) ValidateStack(data []byte) (*ValidationResult, error) {
	return v.Decode(data, &models.Stack{}), nil
}

func invalid(errs ...ValidationError) *ValidationResult {
	return &ValidationResult{Valid: false, Errors: errs}
}

// validateJSONLD validates JSON-LD structure using json-gold
func (v *Validator) validateJSONLD(data []byte) []ValidationError {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []ValidationError{{Field: "document", Message: fmt.Sprintf("Invalid JSON: %v", err)}}
	}
	docMap, ok := doc.(map[string]interface{})
	if !ok {
		return []ValidationError{{Field: "document", Message: "Document must be a JSON object"}}
	}

	var errs []ValidationError
	for _, key := range []string{"@context", "@type", "@id"} {
		if _, has := docMap[key]; !has {
			errs = append(errs, ValidationError{
				Field:   key,
				Message: fmt.Sprintf("Missing %s field (required for JSON-LD)", key),
			})
		}
	}

	if _, err := v.jsonldProcessor.Expand(doc, v.jsonldOptions); err != nil {
		errs = append(errs, ValidationError{
			Field:   "document",
			Message: fmt.Sprintf("Invalid JSON-LD structure: %v", err),
		})
	}
	return errs
}

func (v *Validator) validateStruct(s any) []ValidationError {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "document", Message: err.Error()}}
	}

	errs := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fieldPath(fe),
			Message: message(fe),
			Value:   valueOf(fe),
		})
	}
	return errs
}

// fieldPath drops the struct name from the namespace: "Container.ports[0].hostPort"
// becomes "ports[0].hostPort".
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "ip":
		return "Invalid IP address format"
	case "oneof":
		return fmt.Sprintf("Invalid %s: must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		if fe.Param() == "0" {
			return fmt.Sprintf("%s cannot be negative", fe.Field())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func valueOf(fe validator.FieldError) interface{} {
	if fe.Tag() == "required" {
		return nil
	}
	return fe.Value()
}
