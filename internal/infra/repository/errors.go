package repository

import (
	"errors"

	repo "agritech/internal/repository"

	"gorm.io/gorm"
)

// maps driver errors onto repository sentinels; needs gorm.Config.TranslateError
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return repo.ErrInUse
	}
	return err
}
