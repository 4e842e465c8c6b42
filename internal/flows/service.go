package flows

import (
	"context"

	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/workflow"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return len(s.deps.Submit) > 0
}

// Loads reports whether kind has a lookup to run when it starts.
func (s Service) Loads(kind workflow.Kind) bool {
	_, ok := s.deps.Load[kind]
	return ok
}

func (s Service) Submit(ctx context.Context, st workflow.State, input workflow.FormInput, provider challenge.Provider) (SubmitResult, error) {
	return RunSubmit(ctx, st, input, provider, s.deps.Submit[st.Kind])
}

func (s Service) TokenCheck(ctx context.Context, st workflow.State, provider challenge.Provider) (SubmitResult, error) {
	return RunTokenCheck(ctx, st, provider, s.deps.Submit[st.Kind])
}

func (s Service) Load(ctx context.Context, st workflow.State) (SubmitResult, error) {
	return RunLoad(ctx, st, s.deps.Load[st.Kind])
}

func (s Service) SignOut(ctx context.Context, sessionID string) SignOutResult {
	return RunSignOut(ctx, sessionID, s.deps.SignOut)
}
