// Package validation provides input validation for configuration and
// request payloads.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report failures as a
// *Error carrying one FieldError per failing field.
//
// # Struct Tag Validation
//
//	type ProviderConfig struct {
//	    BaseURL string `mapstructure:"base_url" validate:"required,url"`
//	    Model   string `mapstructure:"model" validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("text", req.Text).MaxLength("text", req.Text, 32000)
//	err := v.Validate()
package validation
