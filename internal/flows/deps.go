package flows

import "github.com/MrEthical07/mojito/workflow"

// Deps holds the per-kind submission and lookup wiring plus the sign-out
// collaborators. A kind with no Submit entry cannot be submitted.
type Deps struct {
	Submit  map[workflow.Kind]SubmitDeps
	Load    map[workflow.Kind]LoadDeps
	SignOut SignOutDeps
}
