package logistics

import (
	"context"
	"errors"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"
)

// FanoutNotifier delivers to every notifier and joins their errors.
type FanoutNotifier []ports.Notifier

func (f FanoutNotifier) NotifySales(ctx context.Context, r domain.PlannedRoute) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.NotifySales(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
