package pawapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/ports/remote"
)

func setFeedbackID(f *feedback.Feedback, id string) bool {
	if f.ID != "" {
		return false
	}
	f.ID = id
	return true
}

func (c *Client) SubmitFeedback(ctx context.Context, userID string, f feedback.Feedback) (feedback.Feedback, error) {
	f.Queued = false
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/api/feedback", userID: userID, body: f})
	if err != nil {
		return feedback.Feedback{}, fmt.Errorf("pawapi submit feedback: %w", err)
	}
	if id := serverID(unwrap(raw, "feedback")); id != "" {
		f.ID = id
	} else if id := serverID(raw); id != "" {
		f.ID = id
	}
	return f, nil
}

func (c *Client) ListFeedback(ctx context.Context, userID string, limit, skip int) ([]feedback.Feedback, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	raw, err := c.get(ctx, "/api/feedback", userID, q)
	if err != nil {
		return nil, fmt.Errorf("pawapi list feedback: %w", err)
	}
	return decodeEntities(raw, setFeedbackID, "feedback", "items")
}

func (c *Client) SubmitCommunityFeedback(ctx context.Context, userID string, cf feedback.CommunityFeedback) (feedback.CommunityFeedback, error) {
	cf.Queued = false
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/api/community-feedback", userID: userID, body: cf})
	if err != nil {
		return feedback.CommunityFeedback{}, fmt.Errorf("pawapi submit community feedback: %w", err)
	}
	if id := serverID(unwrap(raw, "feedback")); id != "" {
		cf.ID = id
	}
	return cf, nil
}

var _ remote.Service = (*Client)(nil)
