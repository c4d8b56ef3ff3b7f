package directory

import (
	"context"
	"errors"

	id "schoolbus/pkg/domain"
)

// ExistenceChecker adapts a Client to the existence-check questions the
// engine asks.
type ExistenceChecker struct {
	client Client
}

func NewExistenceChecker(client Client) *ExistenceChecker {
	return &ExistenceChecker{client: client}
}

func (e *ExistenceChecker) PeriodExists(ctx context.Context, periodID id.PeriodID) (bool, error) {
	_, err := e.client.GetPeriod(ctx, periodID)
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *ExistenceChecker) DistrictExists(ctx context.Context, districtID id.DistrictID) (bool, error) {
	_, err := e.client.GetDistrict(ctx, districtID)
	if err != nil {
		if errors.Is(err, ErrDistrictNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
