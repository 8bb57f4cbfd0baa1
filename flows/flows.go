// Package flows declares the VeriNest verification wizards on top of the generic engine.
package flows

import (
	"errors"
	"fmt"
	"sort"

	"verinest-onboarding/gateway"
	"verinest-onboarding/wizard"
)

// StepKey identifies a step across all flows.
type StepKey string

const (
	StepTerms               StepKey = "terms"
	StepPersonalInfo        StepKey = "personal_info"
	StepProfessionalDetails StepKey = "professional_details"
	StepDocumentType        StepKey = "document_type"
	StepDocumentDetails     StepKey = "document_details"
	StepDocumentUpload      StepKey = "document_upload"
	StepSelfie              StepKey = "selfie"
	StepAddress             StepKey = "address"
	StepReview              StepKey = "review"
)

// Flow names.
const (
	NameKYC          = "kyc"
	NameVerification = "verification"
	NameProfessional = "professional"
)

// FieldKind controls how a field is collected.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindChoice  FieldKind = "choice"
	KindDate    FieldKind = "date"
	KindConfirm FieldKind = "confirm"
	KindFile    FieldKind = "file"
)

// Field is one input of a step.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Choices  []string
}

// StepSpec is the declarative content of a step.
type StepSpec struct {
	Key         StepKey
	Title       string
	Description string
	Fields      []Field
	Gate        func(wizard.Data) error
}

// Definition is an ordered set of steps.
type Definition struct {
	Name  string
	Steps []StepSpec
}

// Spec returns the step declared under key.
func (d Definition) Spec(key StepKey) (StepSpec, bool) {
	for _, s := range d.Steps {
		if s.Key == key {
			return s, true
		}
	}
	return StepSpec{}, false
}

// Registry builds the engine registry. With nil deps the steps have no handlers
// and are driven from outside (signals, HTTP).
func (d Definition) Registry(deps *Deps) (*wizard.Registry[StepKey], error) {
	steps := make([]wizard.Step[StepKey], 0, len(d.Steps))
	for _, spec := range d.Steps {
		step := wizard.Step[StepKey]{
			Key:         spec.Key,
			Title:       spec.Title,
			Description: spec.Description,
			Gate:        spec.Gate,
		}
		if deps != nil {
			step.Handler = &fieldStep{spec: spec, deps: deps}
		}
		steps = append(steps, step)
	}
	reg, err := wizard.NewRegistry(steps...)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", d.Name, err)
	}
	return reg, nil
}

var (
	errTermsNotAccepted   = errors.New("please read the terms to the end and accept them")
	errReviewNotConfirmed = errors.New("please confirm your details before submitting")
)

func confirmed(field string, err error) func(wizard.Data) error {
	return func(d wizard.Data) error {
		if d[field] != "true" {
			return err
		}
		return nil
	}
}

var (
	termsStep = StepSpec{
		Key:         StepTerms,
		Title:       "Terms of verification",
		Description: "Read how VeriNest uses your identity documents.",
		Fields: []Field{
			{Name: "terms_accepted", Label: "I have read and accept the terms", Kind: KindConfirm, Required: true},
		},
		Gate: confirmed("terms_accepted", errTermsNotAccepted),
	}
	documentTypeStep = StepSpec{
		Key:         StepDocumentType,
		Title:       "Choose a document",
		Description: "Pick the government ID you will verify with.",
		Fields: []Field{
			{Name: gateway.FieldDocumentType, Label: "Document type", Kind: KindChoice, Required: true,
				Choices: []string{"nin", "drivers_license", "passport"}},
		},
	}
	documentDetailsStep = StepSpec{
		Key:         StepDocumentDetails,
		Title:       "Document details",
		Description: "Enter the details exactly as printed on your document.",
		Fields: []Field{
			{Name: gateway.FieldDocumentID, Label: "Document number", Kind: KindText, Required: true},
			{Name: gateway.FieldNationality, Label: "Nationality", Kind: KindText, Required: true},
			{Name: gateway.FieldDOB, Label: "Date of birth (YYYY-MM-DD)", Kind: KindDate},
		},
	}
	documentUploadStep = StepSpec{
		Key:         StepDocumentUpload,
		Title:       "Upload your document",
		Description: "A clear photo of the front of your document.",
		Fields: []Field{
			{Name: gateway.FieldDocumentURL, Label: "Document image", Kind: KindFile, Required: true},
		},
	}
	selfieStep = StepSpec{
		Key:         StepSelfie,
		Title:       "Take a selfie",
		Description: "We compare it with the photo on your document.",
		Fields: []Field{
			{Name: gateway.FieldSelfieURL, Label: "Selfie image", Kind: KindFile, Required: true},
		},
	}
	addressStep = StepSpec{
		Key:         StepAddress,
		Title:       "Address",
		Description: "Where you live.",
		Fields: []Field{
			{Name: gateway.FieldState, Label: "State", Kind: KindText},
			{Name: gateway.FieldLGA, Label: "LGA", Kind: KindText},
			{Name: gateway.FieldNearestLandmark, Label: "Nearest landmark", Kind: KindText},
		},
	}
	reviewStep = StepSpec{
		Key:         StepReview,
		Title:       "Review and submit",
		Description: "Check your details. Submitting sends them for verification.",
		Fields: []Field{
			{Name: "review_confirmed", Label: "Submit for verification", Kind: KindConfirm, Required: true},
		},
		Gate: confirmed("review_confirmed", errReviewNotConfirmed),
	}
)

// KYC is the full identity verification wizard.
var KYC = Definition{
	Name: NameKYC,
	Steps: []StepSpec{
		termsStep,
		documentTypeStep,
		documentDetailsStep,
		documentUploadStep,
		selfieStep,
		addressStep,
		reviewStep,
	},
}

// Verification is the short document + selfie wizard.
var Verification = Definition{
	Name: NameVerification,
	Steps: []StepSpec{
		documentTypeStep,
		{
			Key:         StepDocumentUpload,
			Title:       "Capture your document",
			Description: "Photo of your document and its number.",
			Fields: []Field{
				{Name: gateway.FieldDocumentURL, Label: "Document image", Kind: KindFile, Required: true},
				{Name: gateway.FieldDocumentID, Label: "Document number", Kind: KindText, Required: true},
				{Name: gateway.FieldNationality, Label: "Nationality", Kind: KindText, Required: true},
			},
		},
		selfieStep,
		reviewStep,
	},
}

// Professional verifies workers offering professional services.
var Professional = Definition{
	Name: NameProfessional,
	Steps: []StepSpec{
		termsStep,
		{
			Key:   StepPersonalInfo,
			Title: "About you",
			Fields: []Field{
				{Name: "full_name", Label: "Full name", Kind: KindText, Required: true},
				{Name: "phone", Label: "Phone number", Kind: KindText, Required: true},
				{Name: gateway.FieldDOB, Label: "Date of birth (YYYY-MM-DD)", Kind: KindDate, Required: true},
			},
		},
		{
			Key:   StepProfessionalDetails,
			Title: "Your profession",
			Fields: []Field{
				{Name: "profession", Label: "Profession", Kind: KindText, Required: true},
				{Name: "years_experience", Label: "Years of experience", Kind: KindText},
				{Name: "portfolio_url", Label: "Portfolio link", Kind: KindText},
			},
		},
		documentTypeStep,
		{
			Key:   StepDocumentDetails,
			Title: "Document details",
			Fields: []Field{
				{Name: gateway.FieldDocumentID, Label: "Document number", Kind: KindText, Required: true},
				{Name: gateway.FieldNationality, Label: "Nationality", Kind: KindText, Required: true},
			},
		},
		documentUploadStep,
		selfieStep,
		reviewStep,
	},
}

var byName = map[string]Definition{
	NameKYC:          KYC,
	NameVerification: Verification,
	NameProfessional: Professional,
}

// ByName returns the flow definition called name.
func ByName(name string) (Definition, error) {
	d, ok := byName[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown flow %q", name)
	}
	return d, nil
}

// Names lists the available flows.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
