package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// Poller watches for an in-progress session so other clients can offer to
// resume it. Polling is pull-based on a bounded interval with exponential
// backoff on repeated transient failures, and stops when the context is
// cancelled. Stale reads are acceptable; this is a convenience signal, not
// a lock.
type Poller struct {
	client   *Client
	interval time.Duration
	maxWait  time.Duration
	log      *slog.Logger

	// OnChange is called on every successful poll with the active session,
	// or nil when there is none.
	OnChange func(*models.Session)
}

// NewPoller creates a Poller with the given base interval. Backoff on
// transient errors doubles the wait up to 8x the base interval.
func NewPoller(client *Client, interval time.Duration, log *slog.Logger) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		maxWait:  8 * interval,
		log:      log,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	wait := p.interval
	for {
		session, err := p.client.ActiveSession(ctx)
		switch {
		case err == nil:
			wait = p.interval
			if p.OnChange != nil {
				p.OnChange(session)
			}
		case errors.Is(err, models.ErrTransient):
			wait *= 2
			if wait > p.maxWait {
				wait = p.maxWait
			}
			p.log.Warn("active-session poll failed, backing off", "wait", wait.String(), "error", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Flush submits queued completions. Before each submission the owning
// session's state is re-checked, so a submission queued before a timeout is
// never replayed against a finished or stopped session. Transient failures
// leave the entry queued for the next flush; conflict and not-found drop it
// as permanently unservable.
func Flush(ctx context.Context, client *Client, state *StateDB, log *slog.Logger) error {
	pending, err := state.Pending()
	if err != nil {
		return err
	}

	for _, p := range pending {
		session, err := client.GetSession(ctx, p.SessionID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				log.Info("dropping queued completion, session gone", "session_id", p.SessionID)
				if err := state.Remove(p.ID); err != nil {
					return err
				}
				continue
			}
			if errors.Is(err, models.ErrTransient) {
				log.Warn("flush paused, server unreachable", "error", err)
				return nil
			}
			return err
		}
		if session.Status != models.StatusInProgress {
			log.Info("dropping queued completion, session is terminal",
				"session_id", p.SessionID, "status", session.Status)
			if err := state.Remove(p.ID); err != nil {
				return err
			}
			continue
		}

		_, err = client.CompleteExercise(ctx, p.SessionID, p.ExerciseID, p.Values)
		switch {
		case err == nil:
			if err := state.Remove(p.ID); err != nil {
				return err
			}
			log.Info("queued completion confirmed", "session_id", p.SessionID, "exercise_id", p.ExerciseID)
		case errors.Is(err, models.ErrTransient):
			log.Warn("flush paused, submission unconfirmed", "error", err)
			return nil
		case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrNotFound):
			log.Info("dropping queued completion", "exercise_id", p.ExerciseID, "error", err)
			if err := state.Remove(p.ID); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}
