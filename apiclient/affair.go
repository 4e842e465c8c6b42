package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// AffairInfo is the 200 body of the affair lookup.
type AffairInfo struct {
	AffairID   string `json:"affairId"`
	AffairType string `json:"affairType"`
	Title      string `json:"title"`
}

// Report is the body of a content report.
type Report struct {
	AffairID       string `json:"affairId"`
	ReportCategory string `json:"reportCategory"`
	Details        string `json:"details"`
}

// AffairInfo loads the summary of the reported content.
func (c *Client) AffairInfo(ctx context.Context, affairID string) (Response, error) {
	q := url.Values{}
	q.Set("affairId", affairID)
	return c.do(ctx, call{method: http.MethodGet, path: "/affair/info", query: q})
}

// Report files a content report on behalf of the signed-in member.
func (c *Client) Report(ctx context.Context, accessToken string, body Report, challengeToken string) (Response, error) {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/affair/report",
		query:  challengeQuery(challengeToken),
		body:   body,
		bearer: accessToken,
	})
}
