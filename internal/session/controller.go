package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leafcheck/internal/logging"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"
)

// Classifier sends one file to the classification service and returns the
// decoded response body.
type Classifier interface {
	Classify(ctx context.Context, f transport.File) (any, error)
}

// Controller drives submissions for a Session.
type Controller struct {
	session    *Session
	classifier Classifier
}

// NewController wires a session to a classifier.
func NewController(s *Session, c Classifier) *Controller {
	return &Controller{session: s, classifier: c}
}

// Session returns the controlled session.
func (c *Controller) Session() *Session {
	return c.session
}

// Submit runs one complete attempt: Begin, Dispatch, Settle. Settle runs on
// every exit path. Without input it returns ErrMissingInput and sends nothing.
func (c *Controller) Submit(ctx context.Context) (o verdict.Outcome, err error) {
	t, err := c.session.Begin()
	if err != nil {
		logging.Get(logging.CategorySession).Infow("submission refused", "error", err)
		return nil, err
	}

	o = verdict.TransportError{Message: verdict.MsgSomethingWrong}
	defer func() {
		shown := c.session.Settle(t, o)
		logging.Get(logging.CategorySession).Infow("submission settled",
			"request_id", t.ID, "outcome", verdict.Kind(o), "displayed", shown,
			"ordering", c.session.Ordering(), "duration", time.Since(t.IssuedAt))
	}()

	o = c.Dispatch(ctx, t)
	return o, nil
}

// Dispatch performs the request for t and interprets the reply. It never
// panics and always returns an outcome; it does not touch session state.
func (c *Controller) Dispatch(ctx context.Context, t Ticket) (o verdict.Outcome) {
	log := logging.Get(logging.CategorySession)
	log.Infow("submission started", "request_id", t.ID, "file", t.File.Name,
		"media_type", t.File.MediaType, "bytes", len(t.File.Data))

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("submission panicked", "request_id", t.ID, "panic", fmt.Sprint(r))
			o = verdict.TransportError{Message: verdict.MsgSomethingWrong}
		}
	}()

	raw, err := c.classifier.Classify(ctx, t.File)
	if err != nil {
		log.Warnw("classification request failed", "request_id", t.ID, "error", err,
			"kind", failureKind(err))
		return verdict.TransportError{Message: verdict.MsgSomethingWrong}
	}

	if msg := verdict.ServerError(raw); msg != "" {
		log.Warnw("service reported an error", "request_id", t.ID, "error", msg)
	}
	return verdict.Interpret(raw)
}

func failureKind(err error) string {
	var statusErr *transport.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, transport.ErrDecode):
		return "decode"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "network"
	}
}
