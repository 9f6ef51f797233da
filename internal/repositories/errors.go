package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
)

// translate maps gorm's not-found and duplicate-key sentinels to NotFound and Conflict
// application errors and wraps everything else with the failed operation. The
// duplicate-key sentinel needs TranslateError on the gorm config.
func translate(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(entity)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.KindConflict, entity+" already exists", err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, entity, err)
}
