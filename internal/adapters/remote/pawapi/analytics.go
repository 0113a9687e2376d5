package pawapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pawdentify/internal/analytics"
	"pawdentify/internal/ports/remote"
)

func (c *Client) AnalyticsDashboard(ctx context.Context, userID string, days int) (analytics.Dashboard, error) {
	raw, err := c.get(ctx, "/api/analytics/dashboard", userID, url.Values{"days": {strconv.Itoa(days)}})
	if err != nil {
		return analytics.Dashboard{}, fmt.Errorf("pawapi analytics dashboard: %w", err)
	}
	var d analytics.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return analytics.Dashboard{}, fmt.Errorf("pawapi: decode dashboard: %w", err)
	}
	return d, nil
}

func (c *Client) BreedAnalytics(ctx context.Context, userID, breed string) (analytics.BreedReport, error) {
	q := url.Values{}
	if b := strings.TrimSpace(breed); b != "" {
		q.Set("breed_name", b)
	}
	raw, err := c.get(ctx, "/api/analytics/breeds", userID, q)
	if err != nil {
		return analytics.BreedReport{}, fmt.Errorf("pawapi breed analytics: %w", err)
	}
	var rep analytics.BreedReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return analytics.BreedReport{}, fmt.Errorf("pawapi: decode breed analytics: %w", err)
	}
	return rep, nil
}

func (c *Client) AnalyticsTrends(ctx context.Context, userID string, period analytics.Period) (analytics.TrendReport, error) {
	raw, err := c.get(ctx, "/api/analytics/trends", userID, url.Values{"period": {string(period)}})
	if err != nil {
		return analytics.TrendReport{}, fmt.Errorf("pawapi analytics trends: %w", err)
	}
	var rep analytics.TrendReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return analytics.TrendReport{}, fmt.Errorf("pawapi: decode trends: %w", err)
	}
	if rep.Period == "" {
		rep.Period = period
	}
	return rep, nil
}

func (c *Client) ExportAnalytics(ctx context.Context, userID string, req remote.ExportRequest) (json.RawMessage, error) {
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/api/analytics/export", userID: userID, body: req})
	if err != nil {
		return nil, fmt.Errorf("pawapi export analytics: %w", err)
	}
	return raw, nil
}
