package controller

import (
	"context"

	"betledger/internal/bet"
	"betledger/internal/method"
)

// FormState is where a form is in its edit/submit cycle.
type FormState int

const (
	// FormIdle is a blank or new-entry form.
	FormIdle FormState = iota
	// FormEditing holds an existing record loaded for change.
	FormEditing
	// FormSubmitting has a request in flight.
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormIdle:
		return "idle"
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// BetForm is the bet entry form. EditingID is zero unless an existing bet is
// being changed.
type BetForm struct {
	State     FormState
	EditingID int64
	Input     bet.Input

	// prior is the state to return to when a submission fails.
	prior FormState
}

// MethodForm is the method entry form.
type MethodForm struct {
	State     FormState
	EditingID int64
	Name      string

	prior FormState
}

func (c *Controller) BetForm() BetForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.betForm
}

func (c *Controller) MethodForm() MethodForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.methodForm
}

// SetBetInput replaces the text in the bet form without changing its state.
func (c *Controller) SetBetInput(in bet.Input) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.betForm.State == FormSubmitting {
		return ErrBusy
	}
	c.betForm.Input = in
	return nil
}

// UseCurrentTime fills the timestamp field with the current minute.
func (c *Controller) UseCurrentTime() error {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.betForm.State == FormSubmitting {
		return ErrBusy
	}
	c.betForm.Input.Timestamp = bet.NowInput(now)
	return nil
}

// EditBet loads b into the form, discarding whatever was typed before.
func (c *Controller) EditBet(b bet.Bet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.betForm.State == FormSubmitting {
		return ErrBusy
	}
	c.betForm = BetForm{State: FormEditing, EditingID: b.ID, Input: bet.ToInput(b)}
	return nil
}

// CancelBetEdit clears the form and returns it to idle.
func (c *Controller) CancelBetEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.betForm.State == FormSubmitting {
		return ErrBusy
	}
	c.betForm = BetForm{}
	return nil
}

// SubmitBet creates the bet in the form, or updates the one being edited.
// Input that does not parse is rejected before any request is made. On
// success the form is cleared and bets then statistics are refetched; on
// failure the form returns to its previous state with its input intact.
func (c *Controller) SubmitBet(ctx context.Context) (bet.Bet, error) {
	c.mu.Lock()
	if c.betForm.State == FormSubmitting {
		c.mu.Unlock()
		return bet.Bet{}, ErrBusy
	}
	form := c.betForm
	fields, err := bet.Parse(form.Input)
	if err != nil {
		c.mu.Unlock()
		c.fail(err, "invalid bet")
		return bet.Bet{}, err
	}
	c.betForm.prior = form.State
	c.betForm.State = FormSubmitting
	c.mu.Unlock()

	var saved bet.Bet
	action, failure := "bet saved", "could not save bet"
	if form.State == FormEditing {
		action, failure = "bet updated", "could not update bet"
		saved, err = c.gw.UpdateBet(ctx, form.EditingID, fields)
	} else {
		saved, err = c.gw.CreateBet(ctx, fields)
	}

	c.mu.Lock()
	if err != nil {
		c.betForm.State = c.betForm.prior
		c.mu.Unlock()
		c.fail(err, failure)
		return bet.Bet{}, err
	}
	c.betForm = BetForm{}
	c.mu.Unlock()

	c.log.WithField("id", saved.ID).Info(action)
	c.succeed(action)
	c.refreshAfterBetChange(ctx)
	return saved, nil
}

// DeleteBet removes a bet and refetches bets then statistics. If the deleted
// bet was loaded in the form, the form is cleared.
func (c *Controller) DeleteBet(ctx context.Context, id int64) error {
	if err := c.gw.DeleteBet(ctx, id); err != nil {
		c.fail(err, "could not delete bet")
		return err
	}

	c.mu.Lock()
	if c.betForm.State == FormEditing && c.betForm.EditingID == id {
		c.betForm = BetForm{}
	}
	c.mu.Unlock()

	c.log.WithField("id", id).Info("bet deleted")
	c.succeed("bet deleted")
	c.refreshAfterBetChange(ctx)
	return nil
}

// refreshAfterBetChange runs the two fetches in order; the snapshot may
// briefly lag the list.
func (c *Controller) refreshAfterBetChange(ctx context.Context) {
	_ = c.RefreshBets(ctx)
	c.RefreshStats(ctx)
}

// SetMethodName replaces the text in the method form.
func (c *Controller) SetMethodName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.methodForm.State == FormSubmitting {
		return ErrBusy
	}
	c.methodForm.Name = name
	return nil
}

// EditMethod loads m into the method form, discarding unsaved text.
func (c *Controller) EditMethod(m method.Method) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.methodForm.State == FormSubmitting {
		return ErrBusy
	}
	c.methodForm = MethodForm{State: FormEditing, EditingID: m.ID, Name: m.Name}
	return nil
}

// CancelMethodEdit clears the method form and returns it to idle.
func (c *Controller) CancelMethodEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.methodForm.State == FormSubmitting {
		return ErrBusy
	}
	c.methodForm = MethodForm{}
	return nil
}

// SubmitMethod creates or renames a method. Only the method collection is
// refetched afterwards; bet rows keep the names they were fetched with.
func (c *Controller) SubmitMethod(ctx context.Context) (method.Method, error) {
	c.mu.Lock()
	if c.methodForm.State == FormSubmitting {
		c.mu.Unlock()
		return method.Method{}, ErrBusy
	}
	form := c.methodForm
	if _, err := method.NormalizeName(form.Name); err != nil {
		c.mu.Unlock()
		c.fail(err, "invalid method")
		return method.Method{}, err
	}
	c.methodForm.prior = form.State
	c.methodForm.State = FormSubmitting
	c.mu.Unlock()

	var (
		saved method.Method
		err   error
	)
	action, failure := "method created", "could not create method"
	if form.State == FormEditing {
		action, failure = "method renamed", "could not rename method"
		saved, err = c.registry.Update(ctx, form.EditingID, form.Name)
	} else {
		saved, err = c.registry.Create(ctx, form.Name)
	}

	c.mu.Lock()
	if err != nil {
		c.methodForm.State = c.methodForm.prior
		c.mu.Unlock()
		c.fail(err, failure)
		return method.Method{}, err
	}
	c.methodForm = MethodForm{}
	c.mu.Unlock()

	c.log.WithField("id", saved.ID).Info(action)
	c.succeed(action)
	_ = c.RefreshMethods(ctx)
	return saved, nil
}

// DeleteMethod removes a method and refetches methods. Whatever the gateway
// does about bets that reference it is surfaced as-is.
func (c *Controller) DeleteMethod(ctx context.Context, id int64) error {
	if err := c.registry.Delete(ctx, id); err != nil {
		c.fail(err, "could not delete method")
		return err
	}

	c.mu.Lock()
	if c.methodForm.State == FormEditing && c.methodForm.EditingID == id {
		c.methodForm = MethodForm{}
	}
	c.mu.Unlock()

	c.log.WithField("id", id).Info("method deleted")
	c.succeed("method deleted")
	_ = c.RefreshMethods(ctx)
	return nil
}
