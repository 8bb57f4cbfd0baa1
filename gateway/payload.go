package gateway

import (
	"fmt"
	"strings"
	"time"

	"verinest-onboarding/shared"
)

// Backend verification types.
const (
	TypeNationalID    = "NationalId"
	TypeDriverLicense = "DriverLicense"
	TypePassport      = "Passport"
)

// Field names of the accumulated wizard data consumed by BuildPayload.
const (
	FieldDocumentType    = "document_type"
	FieldDocumentID      = "document_id"
	FieldNationality     = "nationality"
	FieldDocumentURL     = "document_url"
	FieldSelfieURL       = "selfie_url"
	FieldDOB             = "dob"
	FieldState           = "state"
	FieldLGA             = "lga"
	FieldNearestLandmark = "nearest_landmark"
)

var documentTypes = map[string]string{
	"nin":                    TypeNationalID,
	"national_id":            TypeNationalID,
	"nationalid":             TypeNationalID,
	"drivers_license":        TypeDriverLicense,
	"driver_license":         TypeDriverLicense,
	"driverlicense":          TypeDriverLicense,
	"passport":               TypePassport,
	"international_passport": TypePassport,
}

var requiredFields = []struct {
	name  string
	label string
}{
	{FieldDocumentURL, "Document URL"},
	{FieldSelfieURL, "Selfie URL"},
	{FieldDocumentID, "Document ID"},
	{FieldNationality, "Nationality"},
}

var dobLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// MapDocumentType converts a wizard choice to the backend enum. An empty choice
// means the default national ID; anything unrecognised is rejected.
func MapDocumentType(choice string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(choice))
	if key == "" {
		return TypeNationalID, nil
	}
	if t, ok := documentTypes[key]; ok {
		return t, nil
	}
	return "", &ValidationError{
		Field:   FieldDocumentType,
		Message: fmt.Sprintf("Unsupported document type %q", choice),
	}
}

// NormalizeDOB returns the date of birth as an RFC 3339 UTC timestamp.
func NormalizeDOB(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", &ValidationError{Field: FieldDOB, Message: "Date of birth must be a valid date"}
}

// BuildPayload validates the accumulated fields and shapes the submission body.
// It performs no I/O.
func BuildPayload(fields map[string]string) (shared.VerificationPayload, error) {
	for _, f := range requiredFields {
		if strings.TrimSpace(fields[f.name]) == "" {
			return shared.VerificationPayload{}, &ValidationError{
				Field:   f.name,
				Message: f.label + " is required",
			}
		}
	}

	verificationType, err := MapDocumentType(fields[FieldDocumentType])
	if err != nil {
		return shared.VerificationPayload{}, err
	}

	p := shared.VerificationPayload{
		VerificationType: verificationType,
		DocumentID:       strings.TrimSpace(fields[FieldDocumentID]),
		Nationality:      strings.TrimSpace(fields[FieldNationality]),
		DocumentURL:      strings.TrimSpace(fields[FieldDocumentURL]),
		SelfieURL:        strings.TrimSpace(fields[FieldSelfieURL]),
		State:            strings.TrimSpace(fields[FieldState]),
		LGA:              strings.TrimSpace(fields[FieldLGA]),
		NearestLandmark:  strings.TrimSpace(fields[FieldNearestLandmark]),
	}
	if dob := fields[FieldDOB]; strings.TrimSpace(dob) != "" {
		if p.DOB, err = NormalizeDOB(dob); err != nil {
			return shared.VerificationPayload{}, err
		}
	}
	return p, nil
}
