package mojito

import "github.com/MrEthical07/mojito/workflow"

var formFields = map[workflow.Kind][]string{
	workflow.KindSignUp:               {workflow.FieldEmailAddress, workflow.FieldPassword, workflow.FieldRepeatPassword},
	workflow.KindSignIn:               {workflow.FieldEmailAddress, workflow.FieldPassword},
	workflow.KindPasswordResetRequest: {workflow.FieldEmailAddress},
	workflow.KindPasswordReset:        {workflow.FieldPassword, workflow.FieldRepeatPassword},
	workflow.KindReport:               {workflow.FieldReportCategory, workflow.FieldDetails},
}

// Context values a page may display. Tokens and request identifiers stay
// server-side.
var displayedValues = []string{
	workflow.ContextEmailAddress,
	workflow.ContextAffairType,
	workflow.ContextAffairTitle,
}

// Render localizes st. It reads nothing but st, the catalog and the limiter
// window.
func (e *Engine) Render(st workflow.State) View {
	if e == nil || e.catalog == nil {
		return View{ID: st.ID, Kind: st.Kind, Step: st.Step, Language: st.Language}
	}

	lang := e.catalog.Resolve(st.Language)
	next := e.catalog.Next(lang)
	v := View{
		ID:                st.ID,
		Kind:              st.Kind,
		Step:              st.Step,
		Language:          lang,
		NextLanguage:      next,
		NextLanguageLabel: e.catalog.Select("language.name", next),
		Submitting:        st.Submitting,
		AwaitingChallenge: st.AwaitingChallenge,
		SubmitDisabled:    st.Step != workflow.StepForm || st.Submitting || st.AwaitingChallenge,
	}

	switch st.Step {
	case workflow.StepTokenCheck:
		v.Message = e.catalog.Select("tokencheck.checking", lang)
	case workflow.StepForm:
		v.SubmitLabel = e.catalog.Select("form.submit", lang)
		if st.Submitting {
			v.SubmitLabel = e.catalog.Select("form.submitting", lang)
		}
		for _, name := range formFields[st.Kind] {
			field := FieldView{
				Name:  name,
				Label: e.catalog.Select("field."+name, lang),
			}
			if name == workflow.FieldReportCategory {
				field.Options = ReportCategories()
			}
			v.Fields = append(v.Fields, field)
		}
	case workflow.StepResult:
		if st.Outcome != nil {
			v.Outcome = &OutcomeView{
				Bucket:          st.Outcome.Bucket,
				Title:           e.catalog.Select(st.Outcome.TitleKey, lang),
				Body:            e.catalog.Select(st.Outcome.BodyKey, lang),
				Affordance:      st.Outcome.Affordance,
				AffordanceLabel: e.catalog.Select("affordance."+string(st.Outcome.Affordance), lang),
			}
		}
	}

	if st.Banner != nil && st.Banner.Visible {
		v.Banner = e.catalog.Select(st.Banner.Key, lang)
		if st.Banner.Key == workflow.BannerRateLimited {
			v.RetryAfter = int(e.limiter.Cooldown().Seconds())
		}
	}

	for _, key := range displayedValues {
		if val := st.Value(key); val != "" {
			if v.Values == nil {
				v.Values = make(map[string]string, len(displayedValues))
			}
			v.Values[key] = val
		}
	}

	return v
}
