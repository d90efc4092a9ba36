package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/uuid"
)

const maxCounterpartyNameLength = 100

// counterpartyService handles counterparty persistence.
type counterpartyService struct {
	db *gorm.DB
}

// NewCounterpartyService creates a new CounterpartyServicer.
func NewCounterpartyService(db *gorm.DB) CounterpartyServicer {
	return &counterpartyService{db: db}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "counterparty name is required")
	}
	if len(name) > maxCounterpartyNameLength {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "counterparty name is too long")
	}
	return name, nil
}

// ensureUniqueName rejects a name already used by another of the user's
// counterparties, ignoring case. excludeID skips the record being renamed.
func (s *counterpartyService) ensureUniqueName(userID, name, excludeID string) error {
	q := s.db.Model(&models.Counterparty{}).Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCounterparty
	}
	return nil
}

// CreateCounterparty creates a new counterparty for a user
func (s *counterpartyService) CreateCounterparty(userID, name string) (*models.Counterparty, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(userID, name, ""); err != nil {
		return nil, err
	}

	counterparty := &models.Counterparty{UserID: userID, Name: name}
	if err := s.db.Create(counterparty).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return counterparty, nil
}

// GetUserCounterparties retrieves a paginated list of counterparties ordered by name.
func (s *counterpartyService) GetUserCounterparties(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Counterparty], error) {
	page.Defaults()

	base := s.db.Model(&models.Counterparty{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var counterparties []models.Counterparty
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&counterparties).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(counterparties, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCounterpartyByID retrieves a counterparty by ID for a specific user
func (s *counterpartyService) GetCounterpartyByID(userID, counterpartyID string) (*models.Counterparty, error) {
	if !uuid.IsValid(counterpartyID) {
		return nil, apperrors.ErrCounterpartyNotFound
	}
	var counterparty models.Counterparty
	if err := s.db.Where("id = ? AND user_id = ?", counterpartyID, userID).First(&counterparty).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCounterpartyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &counterparty, nil
}

// UpdateCounterparty renames a counterparty. The name is its only mutable field.
func (s *counterpartyService) UpdateCounterparty(userID, counterpartyID, name string) (*models.Counterparty, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	counterparty, err := s.GetCounterpartyByID(userID, counterpartyID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(userID, name, counterparty.ID); err != nil {
		return nil, err
	}

	if err := s.db.Model(counterparty).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return counterparty, nil
}

// DeleteCounterparty deletes a counterparty together with all of its transactions.
func (s *counterpartyService) DeleteCounterparty(userID, counterpartyID string) error {
	counterparty, err := s.GetCounterpartyByID(userID, counterpartyID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND counterparty_id = ?", userID, counterparty.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(counterparty).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
