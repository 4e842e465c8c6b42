package mojito

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/validate"
	"github.com/MrEthical07/mojito/workflow"
)

// ReportCategories lists the categories the report form accepts.
func ReportCategories() []string {
	return append([]string(nil), validate.ReportCategories...)
}

func validateReport(_ workflow.State, input workflow.FormInput) string {
	if err := validate.ReportCategory(input.Get(workflow.FieldReportCategory)); err != nil {
		return validationKey(err)
	}
	return validationKey(validate.ReportDetails(input.Get(workflow.FieldDetails)))
}

func (e *Engine) callAffairInfo(ctx context.Context, st workflow.State) (flows.Response, error) {
	resp, err := e.api.AffairInfo(ctx, st.Value(workflow.ContextAffairID))
	if err != nil {
		return flows.Response{}, err
	}
	out := flows.Response{Status: resp.StatusCode}
	if !resp.OK() {
		return out, nil
	}
	var info apiclient.AffairInfo
	if err := resp.Decode(&info); err != nil {
		e.logger.Warn("affair info undecodable", zap.String("workflow_id", st.ID), zap.Error(err))
		out.Status = 0
		return out, nil
	}
	out.Values = map[string]string{
		workflow.ContextAffairType:  info.AffairType,
		workflow.ContextAffairTitle: info.Title,
	}
	return out, nil
}

func classifyAffairInfo(_ workflow.State, resp flows.Response) workflow.Decision {
	switch resp.Status {
	case 200:
		return workflow.Advance(resp.Values)
	case 403, 404:
		return finish(workflow.BucketNotFound, resp.Status, "report.notFound", workflow.AffordanceBack)
	default:
		return genericFailure(resp.Status)
	}
}

// callReport files the report with the member's access token. A session that
// expired since the form opened is answered locally as 401.
func (e *Engine) callReport(ctx context.Context, st workflow.State, input workflow.FormInput, challengeToken string) (flows.Response, error) {
	sess, err := e.Session(ctx, st.Value(workflow.ContextSessionID))
	if err != nil {
		e.logger.Info("report without live session", zap.String("workflow_id", st.ID), zap.Error(err))
		return flows.Response{Status: 401}, nil
	}
	return fromAPI(e.api.Report(ctx, sess.AccessToken, apiclient.Report{
		AffairID:       st.Value(workflow.ContextAffairID),
		ReportCategory: input.Get(workflow.FieldReportCategory),
		Details:        strings.TrimSpace(input.Get(workflow.FieldDetails)),
	}, challengeToken))
}

func classifyReport(_ workflow.State, resp flows.Response) workflow.Decision {
	switch resp.Status {
	case 200:
		return finish(workflow.BucketSuccess, 200, "report.success", workflow.AffordanceBack)
	case 400:
		return workflow.Retry(workflow.BucketConflict, "report.duplicate")
	case 401:
		return signInRequired()
	case 403:
		return finish(workflow.BucketNotFound, 403, "error.forbidden", workflow.AffordanceHome)
	case 404:
		return finish(workflow.BucketNotFound, 404, "report.notFound", workflow.AffordanceBack)
	default:
		return genericFailure(resp.Status)
	}
}
