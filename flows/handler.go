package flows

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"verinest-onboarding/gateway"
	"verinest-onboarding/wizard"
)

// Prompter collects field values from a user. Ask may return wizard.ErrBack or
// wizard.ErrAbandon to navigate instead of answering.
type Prompter interface {
	Begin(step StepSpec, data wizard.Data)
	Ask(ctx context.Context, field Field, current string) (string, error)
}

// MediaUploader stores an image and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Deps are the collaborators step handlers need.
type Deps struct {
	Prompter Prompter
	Uploader MediaUploader
	Open     func(path string) (io.ReadCloser, error)
	Logger   *zap.Logger
}

func (d *Deps) open(path string) (io.ReadCloser, error) {
	if d.Open != nil {
		return d.Open(path)
	}
	return os.Open(path)
}

func (d *Deps) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

type fieldStep struct {
	spec StepSpec
	deps *Deps
}

func (s *fieldStep) Run(ctx context.Context, current wizard.Data) (wizard.Data, error) {
	s.deps.Prompter.Begin(s.spec, current)
	out := make(wizard.Data, len(s.spec.Fields))
	for _, f := range s.spec.Fields {
		val, err := s.deps.Prompter.Ask(ctx, f, current[f.Name])
		if err != nil {
			return nil, err
		}
		if f.Kind == KindFile && val != "" && val != current[f.Name] && !isURL(val) {
			url, err := s.upload(ctx, val)
			if err != nil {
				return nil, err
			}
			val = url
		}
		out[f.Name] = val
	}
	return out, nil
}

func (s *fieldStep) upload(ctx context.Context, path string) (string, error) {
	if s.deps.Uploader == nil {
		return "", fmt.Errorf("no uploader configured for %s", path)
	}
	rc, err := s.deps.open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	url, err := s.deps.Uploader.Upload(ctx, filepath.Base(path), rc)
	if err != nil {
		return "", err
	}
	s.deps.logger().Info("Image uploaded", zap.String("step", string(s.spec.Key)), zap.String("url", url))
	return url, nil
}

func isURL(v string) bool {
	return strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")
}

// FieldSubmitter is the part of the gateway client the wizard submits through.
type FieldSubmitter interface {
	SubmitFields(ctx context.Context, token string, fields map[string]string) (*gateway.Response, error)
}

// NewSubmitter submits accumulated wizard data with the user's bearer token.
func NewSubmitter(client FieldSubmitter, token string) wizard.Submitter {
	return wizard.SubmitterFunc(func(ctx context.Context, data wizard.Data) error {
		_, err := client.SubmitFields(ctx, token, data)
		return err
	})
}
