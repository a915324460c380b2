package resource

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lmsadmin/internal/client"
	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/events"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/session"
)

type Action string

const (
	ActionSoftDelete Action = "soft_delete"
	ActionHardDelete Action = "hard_delete"
	ActionRestore    Action = "restore"
	ActionEdit       Action = "edit"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionSoftDelete, ActionHardDelete, ActionRestore, ActionEdit:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", errdefs.ErrUnknownAction, raw)
}

type Lifecycle string

const (
	Active    Lifecycle = "active"
	Deleted   Lifecycle = "deleted"
	Destroyed Lifecycle = "destroyed"
)

func LifecycleOf(deleted bool) Lifecycle {
	if deleted {
		return Deleted
	}
	return Active
}

// Next is the record lifecycle. Destroyed is terminal.
func Next(from Lifecycle, a Action) (Lifecycle, error) {
	switch {
	case from == Active && a == ActionSoftDelete:
		return Deleted, nil
	case from == Active && a == ActionEdit:
		return Active, nil
	case from == Deleted && a == ActionRestore:
		return Active, nil
	case from == Deleted && a == ActionHardDelete:
		return Destroyed, nil
	}
	return from, fmt.Errorf("%w: cannot %s a %s record", errdefs.ErrInvalidTransition, a, from)
}

// Allowed lists the actions a record in the given state offers.
func Allowed(from Lifecycle) []Action {
	switch from {
	case Active:
		return []Action{ActionEdit, ActionSoftDelete}
	case Deleted:
		return []Action{ActionRestore, ActionHardDelete}
	}
	return nil
}

const (
	SoftDeleteLabel = "Delete"
	HardDeleteLabel = "Delete permanently"
	RestoreLabel    = "Restore"
	CancelLabel     = "Cancel"
)

type Dialog struct {
	Action       Action `json:"action"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirmLabel"`
	CancelLabel  string `json:"cancelLabel"`
	Destructive  bool   `json:"destructive"`
}

// Dispatcher runs lifecycle actions against the backend. It never changes
// local state itself; onSuccess runs only after the backend confirmed.
type Dispatcher[T any] struct {
	res       Client[T]
	name      string
	cascade   string
	events    Publisher
	now       func() time.Time
	onSuccess func(ctx context.Context, sess *session.Session)
}

func NewDispatcher[T any](res Client[T], name, cascade string, pub Publisher, now func() time.Time, onSuccess func(context.Context, *session.Session)) *Dispatcher[T] {
	return &Dispatcher[T]{res: res, name: name, cascade: cascade, events: pub, now: now, onSuccess: onSuccess}
}

func (d *Dispatcher[T]) Dialog(a Action) (Dialog, error) {
	switch a {
	case ActionSoftDelete:
		return Dialog{
			Action:       a,
			Title:        "Delete " + d.name + "?",
			Message:      "The " + d.name + " will be hidden from the list. You can restore it later.",
			ConfirmLabel: SoftDeleteLabel,
			CancelLabel:  CancelLabel,
			Destructive:  true,
		}, nil
	case ActionHardDelete:
		msg := "This permanently deletes the " + d.name + " and cannot be undone."
		if d.cascade != "" {
			msg += " Its " + d.cascade + " will be deleted as well."
		}
		return Dialog{
			Action:       a,
			Title:        "Permanently delete " + d.name + "?",
			Message:      msg,
			ConfirmLabel: HardDeleteLabel,
			CancelLabel:  CancelLabel,
			Destructive:  true,
		}, nil
	case ActionRestore:
		return Dialog{
			Action:       a,
			Title:        "Restore " + d.name + "?",
			Message:      "The " + d.name + " will be visible in the list again.",
			ConfirmLabel: RestoreLabel,
			CancelLabel:  CancelLabel,
		}, nil
	}
	return Dialog{}, fmt.Errorf("%w: no dialog for %q", errdefs.ErrUnknownAction, a)
}

// Execute runs a soft delete, hard delete or restore. Deletes need the
// dialog's confirm label echoed back.
func (d *Dispatcher[T]) Execute(ctx context.Context, sess *session.Session, id string, from Lifecycle, a Action, confirm string) error {
	if a == ActionEdit {
		return fmt.Errorf("%w: edit goes through the form", errdefs.ErrUnknownAction)
	}
	if _, err := Next(from, a); err != nil {
		return err
	}
	if a == ActionSoftDelete || a == ActionHardDelete {
		dlg, err := d.Dialog(a)
		if err != nil {
			return err
		}
		if confirm != dlg.ConfirmLabel {
			return fmt.Errorf("%w: confirm with %q", errdefs.ErrConfirmationRequired, dlg.ConfirmLabel)
		}
	}

	var err error
	switch a {
	case ActionSoftDelete:
		err = d.res.SoftDelete(ctx, sess, id)
	case ActionHardDelete:
		err = d.res.HardDelete(ctx, sess, id)
	case ActionRestore:
		err = d.res.Restore(ctx, sess, id)
	}
	if err != nil {
		return err
	}

	d.succeeded(ctx, sess, id, a)
	return nil
}

// Edit sends an already validated change set.
func (d *Dispatcher[T]) Edit(ctx context.Context, sess *session.Session, id string, from Lifecycle, changes map[string]any, files ...client.File) (T, error) {
	var rec T
	if _, err := Next(from, ActionEdit); err != nil {
		return rec, err
	}
	rec, err := d.res.Update(ctx, sess, id, changes, files...)
	if err != nil {
		return rec, err
	}
	d.succeeded(ctx, sess, id, ActionEdit)
	return rec, nil
}

func (d *Dispatcher[T]) succeeded(ctx context.Context, sess *session.Session, id string, a Action) {
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "lifecycle action applied",
		zap.String("resource", d.res.Endpoint().Path),
		zap.String("record_id", id),
		zap.String("action", string(a)),
	)

	if d.onSuccess != nil {
		d.onSuccess(ctx, sess)
	}

	e := events.Event{
		Resource:   d.res.Endpoint().Path,
		RecordID:   id,
		Action:     string(a),
		UserID:     sess.UserID,
		OccurredAt: d.now().UTC(),
	}
	if err := d.events.Publish(ctx, e); err != nil {
		logger.Warn(ctx, "audit event not published", zap.Error(err), zap.String("record_id", id))
	}
}
