package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pawdentify/internal/domain/feedback"
)

// SubmitFeedback envía el feedback; sin servidor queda en la cola local para FlushQueuedFeedback.
func (g *Gateway) SubmitFeedback(ctx context.Context, userID string, f feedback.Feedback) (Write[feedback.Feedback], error) {
	f, err := f.Normalize()
	if err != nil {
		return Write[feedback.Feedback]{}, invalid("submit feedback", err)
	}
	f.UserID = userID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = g.now()
	}
	return write(ctx, g, "submit feedback",
		func(ctx context.Context) (feedback.Feedback, error) {
			return g.remote.SubmitFeedback(ctx, userID, f)
		},
		func(ctx context.Context) (feedback.Feedback, error) {
			g.queueMu.Lock()
			defer g.queueMu.Unlock()
			q, err := g.local.FeedbackQueue(ctx, userID)
			if err != nil {
				return feedback.Feedback{}, err
			}
			f.ID = uuid.NewString()
			f.Queued = true
			return f, g.local.SaveFeedbackQueue(ctx, userID, append(q, f))
		},
	)
}

// ListFeedback localmente sólo conoce lo que sigue en cola.
func (g *Gateway) ListFeedback(ctx context.Context, userID string, limit, skip int) ([]feedback.Feedback, error) {
	if limit <= 0 {
		limit = 20
	}
	return read(ctx, g, "list feedback",
		func(ctx context.Context) ([]feedback.Feedback, error) {
			return nonNilList(g.remote.ListFeedback(ctx, userID, limit, skip))
		},
		func(ctx context.Context) ([]feedback.Feedback, error) {
			q, err := g.local.FeedbackQueue(ctx, userID)
			if err != nil {
				return nil, err
			}
			return page(q, limit, skip), nil
		},
	)
}

func (g *Gateway) SubmitCommunityFeedback(ctx context.Context, userID string, c feedback.CommunityFeedback) (Write[feedback.CommunityFeedback], error) {
	c, err := c.Normalize()
	if err != nil {
		return Write[feedback.CommunityFeedback]{}, invalid("submit community feedback", err)
	}
	c.UserID = userID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = g.now()
	}
	return write(ctx, g, "submit community feedback",
		func(ctx context.Context) (feedback.CommunityFeedback, error) {
			return g.remote.SubmitCommunityFeedback(ctx, userID, c)
		},
		func(ctx context.Context) (feedback.CommunityFeedback, error) {
			g.queueMu.Lock()
			defer g.queueMu.Unlock()
			q, err := g.local.CommunityQueue(ctx, userID)
			if err != nil {
				return feedback.CommunityFeedback{}, err
			}
			c.ID = uuid.NewString()
			c.Queued = true
			return c, g.local.SaveCommunityQueue(ctx, userID, append(q, c))
		},
	)
}

// FlushQueuedFeedback reenvía la cola local. Se detiene ante el primer error de red
// (el flag pasa a unavailable); los rechazos del servidor quedan en cola.
// Devuelve cuántos elementos se enviaron.
func (g *Gateway) FlushQueuedFeedback(ctx context.Context, userID string) (int, error) {
	if g.remote == nil || !g.Availability.Usable() {
		return 0, nil
	}

	q, err := g.local.FeedbackQueue(ctx, userID)
	if err != nil {
		return 0, err
	}
	done, stop := flush(ctx, g, q, func(ctx context.Context, f feedback.Feedback) error {
		f.Queued = false
		_, err := g.remote.SubmitFeedback(ctx, userID, f)
		return err
	})
	sent := len(done)
	if err := dequeue(g, done,
		func() ([]feedback.Feedback, error) { return g.local.FeedbackQueue(ctx, userID) },
		func(q []feedback.Feedback) error { return g.local.SaveFeedbackQueue(ctx, userID, q) },
		func(f feedback.Feedback) string { return f.ID },
	); err != nil {
		return sent, err
	}
	if stop != nil || !g.Availability.Usable() {
		return sent, stop
	}

	cq, err := g.local.CommunityQueue(ctx, userID)
	if err != nil {
		return sent, err
	}
	cdone, stop := flush(ctx, g, cq, func(ctx context.Context, c feedback.CommunityFeedback) error {
		c.Queued = false
		_, err := g.remote.SubmitCommunityFeedback(ctx, userID, c)
		return err
	})
	sent += len(cdone)
	if err := dequeue(g, cdone,
		func() ([]feedback.CommunityFeedback, error) { return g.local.CommunityQueue(ctx, userID) },
		func(q []feedback.CommunityFeedback) error { return g.local.SaveCommunityQueue(ctx, userID, q) },
		func(c feedback.CommunityFeedback) string { return c.ID },
	); err != nil {
		return sent, err
	}
	if sent > 0 {
		g.log.Info("queued feedback flushed", map[string]any{"user_id": userID, "sent": sent})
	}
	return sent, stop
}

// flush devuelve los elementos enviados y, si hubo que cortar, el error de cancelación.
// Un corte por red no es error para el caller.
func flush[T any](ctx context.Context, g *Gateway, queue []T, send func(context.Context, T) error) ([]T, error) {
	done := make([]T, 0, len(queue))
	for _, it := range queue {
		err := send(ctx, it)
		if err == nil {
			done = append(done, it)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return done, fmt.Errorf("flush feedback: %w", ctxErr)
		}
		if kind := classify(err); !errors.Is(kind, ErrServerError) {
			if g.Availability.MarkUnavailable() {
				g.log.Warn("remote service unavailable while flushing feedback", map[string]any{"error": err.Error()})
			}
			return done, nil
		}
		g.log.Warn("queued feedback rejected", map[string]any{"error": err.Error()})
	}
	return done, nil
}

// dequeue relee la cola y quita sólo lo enviado: lo encolado mientras se enviaba se conserva.
func dequeue[T any](g *Gateway, done []T, load func() ([]T, error), save func([]T) error, id func(T) string) error {
	if len(done) == 0 {
		return nil
	}
	sent := make(map[string]struct{}, len(done))
	for _, it := range done {
		sent[id(it)] = struct{}{}
	}

	g.queueMu.Lock()
	defer g.queueMu.Unlock()
	q, err := load()
	if err != nil {
		return err
	}
	rest := make([]T, 0, len(q))
	for _, it := range q {
		if _, ok := sent[id(it)]; !ok {
			rest = append(rest, it)
		}
	}
	return save(rest)
}
