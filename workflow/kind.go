package workflow

// Kind identifies which page flow a workflow instance drives.
type Kind string

const (
	KindSignUp               Kind = "signup"
	KindSignIn               Kind = "signin"
	KindPasswordResetRequest Kind = "resetpasswordrequest"
	KindPasswordReset        Kind = "resetpassword"
	KindAccountVerification  Kind = "signupverify"
	KindEmailVerification    Kind = "emailverify"
	KindReport               Kind = "report"
)

var kinds = []Kind{
	KindSignUp,
	KindSignIn,
	KindPasswordResetRequest,
	KindPasswordReset,
	KindAccountVerification,
	KindEmailVerification,
	KindReport,
}

// Kinds returns every known flow kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a known flow kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// LinkDriven reports whether the flow is reached through an emailed link and
// must validate the embedded request identifier before anything else.
func (k Kind) LinkDriven() bool {
	switch k {
	case KindPasswordReset, KindAccountVerification, KindEmailVerification:
		return true
	default:
		return false
	}
}

// InitialStep returns the step a fresh instance of the flow starts in.
func (k Kind) InitialStep() Step {
	if k.LinkDriven() {
		return StepTokenCheck
	}
	return StepForm
}

func (k Kind) String() string { return string(k) }
