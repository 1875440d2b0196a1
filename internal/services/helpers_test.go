package services

import (
	"errors"

	"github.com/wellspring/maternal-backend/internal/apierr"
)

func asAPIError(err error, target **apierr.Error) bool {
	return errors.As(err, target)
}
