package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"betledger/internal/bet"
	"betledger/internal/config"
	"betledger/internal/gateway"
	"betledger/internal/logger"
	"betledger/internal/method"
	"betledger/internal/stats"
)

// ErrBusy is returned when a form is asked to change while its submission is
// still in flight.
var ErrBusy = errors.New("a submission is already in progress")

// Gateway is the remote side of the controller. *gateway.Client satisfies it.
type Gateway interface {
	method.Backend
	ListBets(ctx context.Context) ([]bet.Bet, error)
	CreateBet(ctx context.Context, f bet.Fields) (bet.Bet, error)
	UpdateBet(ctx context.Context, id int64, f bet.Fields) (bet.Bet, error)
	DeleteBet(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (stats.Snapshot, error)
}

var _ Gateway = (*gateway.Client)(nil)

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for the form's current-time helper and for
// notification expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the client's in-memory collections and form state. Every
// mutation is followed by a refetch of what it can affect; a failed call
// leaves collections and form input as they were and raises a notification.
// Locks are never held across network calls.
type Controller struct {
	gw       Gateway
	registry *method.Registry
	notes    *Notifier
	now      func() time.Time
	log      *logrus.Entry

	mu         sync.Mutex
	bets       []bet.Bet
	methods    []method.Method
	snapshot   stats.Snapshot
	betForm    BetForm
	methodForm MethodForm
}

func New(gw Gateway, cfg config.UIConfig, opts ...Option) *Controller {
	c := &Controller{
		gw:       gw,
		registry: method.NewRegistry(gw),
		now:      time.Now,
		log:      logger.Component("controller"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notes = NewNotifier(cfg.NotificationTTL.Duration, c.now)
	return c
}

// Bets returns a copy of the current bet collection.
func (c *Controller) Bets() []bet.Bet {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bet.Bet, len(c.bets))
	copy(out, c.bets)
	return out
}

// Methods returns a copy of the current method collection.
func (c *Controller) Methods() []method.Method {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]method.Method, len(c.methods))
	copy(out, c.methods)
	return out
}

func (c *Controller) Snapshot() stats.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// MethodName resolves a method id against the loaded methods.
func (c *Controller) MethodName(id int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.methods {
		if m.ID == id {
			return m.Name, true
		}
	}
	return "", false
}

// Notifications returns the active notifications, oldest first.
func (c *Controller) Notifications() []Notification { return c.notes.Active() }

// NotificationTTL is how long a notification stays visible.
func (c *Controller) NotificationTTL() time.Duration { return c.notes.TTL() }

// Dismiss removes a notification by id.
func (c *Controller) Dismiss(id uuid.UUID) bool { return c.notes.Dismiss(id) }

// Refresh loads all three collections: methods, bets, then statistics.
// It returns the first bets or methods failure.
func (c *Controller) Refresh(ctx context.Context) error {
	merr := c.RefreshMethods(ctx)
	berr := c.RefreshBets(ctx)
	c.RefreshStats(ctx)
	if merr != nil {
		return merr
	}
	return berr
}

// RefreshBets replaces the bet collection. On failure the previous
// collection is kept and an error notification is raised.
func (c *Controller) RefreshBets(ctx context.Context) error {
	bets, err := c.gw.ListBets(ctx)
	if err != nil {
		c.fail(err, "could not load bets")
		return err
	}
	c.mu.Lock()
	c.bets = bets
	c.mu.Unlock()
	return nil
}

// RefreshMethods replaces the method collection. On failure the previous
// collection is kept and an error notification is raised.
func (c *Controller) RefreshMethods(ctx context.Context) error {
	methods, err := c.registry.List(ctx)
	if err != nil {
		c.fail(err, "could not load methods")
		return err
	}
	c.mu.Lock()
	c.methods = methods
	c.mu.Unlock()
	return nil
}

// RefreshStats replaces the statistics snapshot. Failures are logged only.
func (c *Controller) RefreshStats(ctx context.Context) {
	snap, err := c.gw.Statistics(ctx)
	if err != nil {
		c.log.WithError(err).Debug("statistics fetch failed")
		return
	}
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

func (c *Controller) succeed(message string) {
	c.notes.Push(LevelSuccess, message)
}

func (c *Controller) fail(err error, message string) {
	text := gateway.UserMessage(err, message)
	var verr *bet.ValidationError
	if errors.As(err, &verr) {
		text = message + ": " + verr.Error()
	}
	c.log.WithError(err).Warn(message)
	c.notes.Push(LevelError, text)
}
