package wizard_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verinest-onboarding/wizard"
)

func TestMerge_RightmostWins(t *testing.T) {
	base := wizard.Data{"document_id": "111", "nationality": "Nigerian"}
	merged := base.Merge(wizard.Data{"document_id": "222", "selfie_url": "https://x/selfie.jpg"})

	assert.Equal(t, wizard.Data{
		"document_id": "222",
		"nationality": "Nigerian",
		"selfie_url":  "https://x/selfie.jpg",
	}, merged)
	assert.Equal(t, "111", base["document_id"], "merge must not mutate the receiver")
}

func TestMerge_Idempotent(t *testing.T) {
	base := wizard.Data{"a": "1", "b": "2"}
	partial := wizard.Data{"b": "3", "c": "4"}

	once := base.Merge(partial)
	twice := base.Merge(partial).Merge(partial)
	assert.Equal(t, once, twice)
}

func TestEncodeDecode_ResumeFidelity(t *testing.T) {
	reg := testRegistry(t)
	s := wizard.NewState(reg)
	s.CurrentStep = stepSelfie
	s.Completed[stepIntro] = struct{}{}
	s.Completed[stepDocument] = struct{}{}
	s.Completed[stepUpload] = struct{}{}
	s.Data = wizard.Data{"document_url": "https://x/doc.jpg", "document_id": "12345678901"}
	s.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	blob, err := wizard.Encode(reg, s)
	require.NoError(t, err)

	got, err := wizard.Decode(reg, blob)
	require.NoError(t, err)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("state changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestEncode_CompletedInRegistryOrder(t *testing.T) {
	reg := testRegistry(t)
	s := wizard.NewState(reg)
	s.Completed[stepUpload] = struct{}{}
	s.Completed[stepIntro] = struct{}{}

	blob, err := wizard.Encode(reg, s)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"completedSteps":["intro","upload"]`)
}

func TestDecode_StaleBlobs(t *testing.T) {
	reg := testRegistry(t)

	_, err := wizard.Decode(reg, []byte(`{"currentStep":"retired","completedSteps":[],"data":{}}`))
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)

	got, err := wizard.Decode(reg, []byte(`{"currentStep":"upload","completedSteps":["intro","retired"],"data":null}`))
	require.NoError(t, err)
	assert.Equal(t, []stepKey{stepIntro}, got.CompletedIn(reg))
	assert.NotNil(t, got.Data)

	_, err = wizard.Decode(reg, []byte(`not json`))
	assert.Error(t, err)
}
