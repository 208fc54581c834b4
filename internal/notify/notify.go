package notify

import (
	"context"
	"errors"

	"github.com/jmetso/tasklist/internal/model"
)

// Multi fans a notification out to several transports and joins their
// errors.
type Multi []interface {
	Send(ctx context.Context, subject, body string, user model.UserAccount) error
}

func (m Multi) Send(ctx context.Context, subject, body string, user model.UserAccount) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, subject, body, user); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
