// Package validation checks request structs and ad-hoc values and reports
// failures as INVALID_INPUT application errors with per-field details.
//
// Struct tags go through go-playground/validator with the extra
// "transcriptname" tag:
//
//	type UploadRequest struct {
//	    Name string `json:"name" validate:"omitempty,transcriptname"`
//	}
//	err := validation.Validate(req)
//
// Values that do not live in a struct use the builder:
//
//	err := validation.New().RequiredUUID("id", id).Validate()
package validation
