package wizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verinest-onboarding/store"
	"verinest-onboarding/wizard"
)

// scripted returns queued responses, one per invocation.
type scripted struct {
	replies []reply
	calls   int
	seen    []wizard.Data
}

type reply struct {
	data wizard.Data
	err  error
}

func (s *scripted) Run(_ context.Context, current wizard.Data) (wizard.Data, error) {
	s.seen = append(s.seen, current)
	r := s.replies[s.calls]
	s.calls++
	return r.data, r.err
}

type recordingSubmitter struct {
	errs  []error
	calls []wizard.Data
}

func (r *recordingSubmitter) Submit(_ context.Context, data wizard.Data) error {
	r.calls = append(r.calls, data)
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func TestRunner_RunToCompletion(t *testing.T) {
	ctx := context.Background()
	doc := &scripted{replies: []reply{
		{data: wizard.Data{"document_id": "12345678901"}},
		{data: wizard.Data{"document_id": "98765432109"}},
	}}
	selfie := &scripted{replies: []reply{
		{err: wizard.ErrBack},
		{data: wizard.Data{"selfie_url": "https://x/selfie.jpg"}},
	}}
	review := &scripted{replies: []reply{{data: nil}}}
	reg := wizard.MustRegistry(
		wizard.Step[stepKey]{Key: stepDocument, Handler: doc},
		wizard.Step[stepKey]{Key: stepSelfie, Handler: selfie},
		wizard.Step[stepKey]{Key: stepReview, Handler: review},
	)
	mem := store.NewMemory()
	sub := &recordingSubmitter{}
	var completed []wizard.State[stepKey]

	r := wizard.NewRunner(wizard.NewDriver(reg, wizard.WithStore(mem, "k")), sub,
		wizard.OnComplete(func(_ context.Context, s wizard.State[stepKey]) { completed = append(completed, s) }))

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, wizard.PhaseComplete, r.Driver().Phase())
	require.Len(t, sub.calls, 1)
	assert.Equal(t, wizard.Data{
		"document_id": "98765432109",
		"selfie_url":  "https://x/selfie.jpg",
	}, sub.calls[0])
	require.Len(t, completed, 1)
	assert.Equal(t, "12345678901", doc.seen[1]["document_id"], "second visit sees earlier answers")

	_, ok, _ := mem.Load(ctx, "k")
	assert.False(t, ok)
}

func TestRunner_SubmissionFailureThenResume(t *testing.T) {
	ctx := context.Background()
	review := &scripted{replies: []reply{{}, {}}}
	reg := wizard.MustRegistry(
		wizard.Step[stepKey]{Key: stepSelfie, Handler: &scripted{replies: []reply{{data: wizard.Data{"selfie_url": "s"}}}}},
		wizard.Step[stepKey]{Key: stepReview, Handler: review},
	)
	rejected := errors.New("Validation failed")
	sub := &recordingSubmitter{errs: []error{rejected}}
	r := wizard.NewRunner(wizard.NewDriver(reg), sub)

	err := r.Run(ctx)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, wizard.PhaseFailed, r.Driver().Phase())
	assert.Equal(t, stepReview, r.Driver().Current())

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, wizard.PhaseComplete, r.Driver().Phase())
	assert.Len(t, sub.calls, 2)
	assert.Equal(t, "s", sub.calls[1]["selfie_url"], "data survives a failed submission")
}

func TestRunner_BackFromFirstStep(t *testing.T) {
	reg := wizard.MustRegistry(
		wizard.Step[stepKey]{Key: stepIntro, Handler: &scripted{replies: []reply{{err: wizard.ErrBack}}}},
		wizard.Step[stepKey]{Key: stepReview},
	)
	r := wizard.NewRunner(wizard.NewDriver(reg), &recordingSubmitter{})
	assert.ErrorIs(t, r.Run(context.Background()), wizard.ErrBack)
}

func TestRunner_Abandon(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Save(ctx, "k", []byte(`{"currentStep":"intro"}`)))
	reg := wizard.MustRegistry(
		wizard.Step[stepKey]{Key: stepIntro, Handler: &scripted{replies: []reply{{err: wizard.ErrAbandon}}}},
		wizard.Step[stepKey]{Key: stepReview},
	)
	r := wizard.NewRunner(wizard.NewDriver(reg, wizard.WithStore(mem, "k")), &recordingSubmitter{})

	assert.ErrorIs(t, r.Run(ctx), wizard.ErrAbandon)
	assert.Equal(t, wizard.PhaseAbandoned, r.Driver().Phase())
	_, ok, _ := mem.Load(ctx, "k")
	assert.False(t, ok)
}

func TestRunner_GateNoticeRerunsStep(t *testing.T) {
	intro := &scripted{replies: []reply{
		{data: wizard.Data{"terms_accepted": "false"}},
		{data: wizard.Data{"terms_accepted": "true"}},
	}}
	reg := wizard.MustRegistry(
		wizard.Step[stepKey]{Key: stepIntro, Handler: intro, Gate: func(d wizard.Data) error {
			if d["terms_accepted"] != "true" {
				return errors.New("accept the terms to continue")
			}
			return nil
		}},
		wizard.Step[stepKey]{Key: stepReview, Handler: &scripted{replies: []reply{{}}}},
	)
	var notices []error
	r := wizard.NewRunner(wizard.NewDriver(reg), &recordingSubmitter{},
		wizard.OnNotice(func(_ stepKey, err error) { notices = append(notices, err) }))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 2, intro.calls)
	require.Len(t, notices, 1)
	assert.ErrorIs(t, notices[0], wizard.ErrGateNotSatisfied)
}

func TestRunner_MissingHandler(t *testing.T) {
	r := wizard.NewRunner(wizard.NewDriver(testRegistry(t)), &recordingSubmitter{})
	assert.ErrorContains(t, r.Run(context.Background()), "has no handler")
}

func TestRunner_Advance(t *testing.T) {
	ctx := context.Background()
	reg := wizard.MustRegistry(wizard.Step[stepKey]{Key: stepSelfie}, wizard.Step[stepKey]{Key: stepReview})
	sub := &recordingSubmitter{}
	r := wizard.NewRunner(wizard.NewDriver(reg), sub)

	require.NoError(t, r.Advance(ctx))
	assert.Empty(t, sub.calls)
	require.NoError(t, r.Advance(ctx))
	assert.Len(t, sub.calls, 1)
	assert.True(t, r.Driver().Done())
}
