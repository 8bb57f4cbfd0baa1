package wizard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verinest-onboarding/wizard"
)

type stepKey string

const (
	stepIntro    stepKey = "intro"
	stepDocument stepKey = "document"
	stepUpload   stepKey = "upload"
	stepSelfie   stepKey = "selfie"
	stepReview   stepKey = "review"
)

func testRegistry(t *testing.T) *wizard.Registry[stepKey] {
	t.Helper()
	reg, err := wizard.NewRegistry(
		wizard.Step[stepKey]{Key: stepIntro, Title: "Welcome"},
		wizard.Step[stepKey]{Key: stepDocument, Title: "Document"},
		wizard.Step[stepKey]{Key: stepUpload, Title: "Upload"},
		wizard.Step[stepKey]{Key: stepSelfie, Title: "Selfie"},
		wizard.Step[stepKey]{Key: stepReview, Title: "Review"},
	)
	require.NoError(t, err)
	return reg
}

func TestNewRegistry_PreservesOrder(t *testing.T) {
	reg := testRegistry(t)

	assert.Equal(t, 5, reg.Len())
	assert.Equal(t, stepIntro, reg.First())
	assert.Equal(t, stepReview, reg.Last())
	assert.Equal(t, []stepKey{stepIntro, stepDocument, stepUpload, stepSelfie, stepReview}, reg.Keys())
	assert.Equal(t, 3, reg.Index(stepSelfie))
	assert.Equal(t, -1, reg.Index("missing"))

	s, err := reg.Lookup(stepUpload)
	require.NoError(t, err)
	assert.Equal(t, "Upload", s.Title)
}

func TestNewRegistry_Rejects(t *testing.T) {
	_, err := wizard.NewRegistry[stepKey]()
	assert.Error(t, err)

	_, err = wizard.NewRegistry(
		wizard.Step[stepKey]{Key: stepIntro},
		wizard.Step[stepKey]{Key: stepIntro},
	)
	assert.ErrorContains(t, err, "duplicate step key")

	_, err = wizard.NewRegistry(wizard.Step[stepKey]{})
	assert.ErrorContains(t, err, "empty key")
}

func TestLookup_UnknownStep(t *testing.T) {
	_, err := testRegistry(t).Lookup("nowhere")
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)
}

func TestMustRegistry_Panics(t *testing.T) {
	assert.Panics(t, func() {
		wizard.MustRegistry(wizard.Step[stepKey]{Key: stepIntro}, wizard.Step[stepKey]{Key: stepIntro})
	})
}
