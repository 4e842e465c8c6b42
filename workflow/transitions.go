package workflow

import "time"

// Effect describes what a classified response does to the workflow.
type Effect int

const (
	// EffectFinish moves the workflow to StepResult with an Outcome.
	EffectFinish Effect = iota
	// EffectRetry keeps the current step and shows a banner.
	EffectRetry
	// EffectAdvance moves a token check to the form step.
	EffectAdvance
)

// Decision is the classification of one remote response.
type Decision struct {
	Effect    Effect
	Bucket    Bucket
	Outcome   Outcome
	BannerKey string
	Context   map[string]string
}

// Finish builds a terminal decision.
func Finish(bucket Bucket, status int, titleKey, bodyKey string, affordance Affordance) Decision {
	return Decision{
		Effect: EffectFinish,
		Bucket: bucket,
		Outcome: Outcome{
			Bucket:     bucket,
			TitleKey:   titleKey,
			BodyKey:    bodyKey,
			Affordance: affordance,
			Status:     status,
		},
	}
}

// Retry builds a recoverable decision that keeps the user on the current step.
func Retry(bucket Bucket, bannerKey string) Decision {
	return Decision{Effect: EffectRetry, Bucket: bucket, BannerKey: bannerKey}
}

// Advance builds a token-check success that reveals the form.
func Advance(values map[string]string) Decision {
	return Decision{Effect: EffectAdvance, Bucket: BucketSuccess, Context: values}
}

// Start creates the initial state of a flow instance.
func Start(id string, kind Kind, language string, now time.Time) State {
	return State{
		ID:        id,
		Kind:      kind,
		Step:      kind.InitialStep(),
		Language:  language,
		Context:   map[string]string{},
		UpdatedAt: now,
	}
}

// WithValue records a context value carried between steps.
func WithValue(s State, key, value string, now time.Time) State {
	next := s.Clone()
	if next.Context == nil {
		next.Context = map[string]string{}
	}
	next.Context[key] = value
	next.UpdatedAt = now
	return next
}

// BeginSubmit marks a validated submission as in progress.
func BeginSubmit(s State, now time.Time) State {
	next := s.Clone()
	next.Submitting = true
	next.Banner = nil
	next.Attempts++
	next.UpdatedAt = now
	return next
}

// RejectInput keeps the step and shows the validation message.
func RejectInput(s State, bannerKey string, now time.Time) State {
	next := s.Clone()
	next.Submitting = false
	next.AwaitingChallenge = false
	next.ChallengeToken = ""
	next.Banner = &Banner{Key: bannerKey, Visible: true}
	next.UpdatedAt = now
	return next
}

// BannerRateLimited is the banner shown when the submission limiter denies
// an attempt.
const BannerRateLimited = "error.rateLimited"

// Throttle rejects a submission denied by the rate limiter.
func Throttle(s State, now time.Time) State {
	return RejectInput(s, BannerRateLimited, now)
}

// AwaitChallenge records that a challenge token has been requested.
func AwaitChallenge(s State, now time.Time) State {
	next := s.Clone()
	next.AwaitingChallenge = true
	next.ChallengeToken = ""
	next.UpdatedAt = now
	return next
}

// ResolveChallenge stores the token delivered by the provider.
func ResolveChallenge(s State, token string, now time.Time) State {
	next := s.Clone()
	next.AwaitingChallenge = false
	next.ChallengeToken = token
	next.UpdatedAt = now
	return next
}

// FailChallenge abandons the attempt after the provider could not verify the
// user and shows bannerKey.
func FailChallenge(s State, bannerKey string, now time.Time) State {
	return RejectInput(s, bannerKey, now)
}

// Abort clears the in-progress markers without a banner. Used when the caller
// went away before the attempt finished.
func Abort(s State, now time.Time) State {
	next := s.Clone()
	next.Submitting = false
	next.AwaitingChallenge = false
	next.ChallengeToken = ""
	next.UpdatedAt = now
	return next
}

// Respond applies a classified response. The challenge token is always
// discarded.
func Respond(s State, d Decision, now time.Time) State {
	next := Abort(s, now)

	switch d.Effect {
	case EffectFinish:
		outcome := d.Outcome
		next.Step = StepResult
		next.Outcome = &outcome
		next.Banner = nil
	case EffectRetry:
		next.Banner = &Banner{Key: d.BannerKey, Visible: true}
	case EffectAdvance:
		next.Step = StepForm
		next.Banner = nil
	}

	if len(d.Context) > 0 {
		if next.Context == nil {
			next.Context = make(map[string]string, len(d.Context))
		}
		for k, v := range d.Context {
			next.Context[k] = v
		}
	}

	return next
}

// ToggleLanguage switches to the language after the current one in languages,
// wrapping around. Unknown current languages restart the cycle.
func ToggleLanguage(s State, languages []string, now time.Time) State {
	next := s.Clone()
	next.UpdatedAt = now
	if len(languages) == 0 {
		return next
	}

	idx := -1
	for i, lang := range languages {
		if lang == s.Language {
			idx = i
			break
		}
	}
	next.Language = languages[(idx+1)%len(languages)]
	return next
}
