package harness

import (
	"context"
	"errors"

	"github.com/sacscloud/checkout/internal/orchestrate"
)

const (
	defaultIntentID = "pi_3scn001"
	defaultOrderRef = "1001"
)

// scriptedServices implements every remote collaborator contract from a
// ServiceSpec: each call either succeeds with the scripted identifiers or
// fails with the scripted message.
type scriptedServices struct {
	spec ServiceSpec
}

func (s *scriptedServices) CreateIntent(_ context.Context, _ int64, _ string, _ orchestrate.Metadata) (orchestrate.Intent, error) {
	if s.spec.IntentError != "" {
		return orchestrate.Intent{}, errors.New(s.spec.IntentError)
	}
	return orchestrate.Intent{ClientSecret: "cs_scenario"}, nil
}

func (s *scriptedServices) ConfirmPayment(_ context.Context, _ string, _ orchestrate.BillingDetails) (orchestrate.Confirmation, error) {
	if s.spec.ProcessorError != "" {
		return orchestrate.Confirmation{}, errors.New(s.spec.ProcessorError)
	}
	id := s.spec.IntentID
	if id == "" {
		id = defaultIntentID
	}
	return orchestrate.Confirmation{IntentID: id}, nil
}

func (s *scriptedServices) CommitOrder(_ context.Context, _ orchestrate.OrderPayload) (string, error) {
	if s.spec.CommitError != "" {
		return "", errors.New(s.spec.CommitError)
	}
	ref := s.spec.OrderRef
	if ref == "" {
		ref = defaultOrderRef
	}
	return ref, nil
}
