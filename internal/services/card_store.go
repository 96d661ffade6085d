package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxListedCards = 200

// ErrCardNotFound is returned when the card does not exist or belongs to someone else
var ErrCardNotFound = errors.New("saved card not found")

// CardStore keeps the cards a user chose to save
type CardStore struct {
	db *gorm.DB
}

func NewCardStore(db *gorm.DB) *CardStore {
	return &CardStore{db: db}
}

// Save stores a generated record for ownerID
func (s *CardStore) Save(ctx context.Context, ownerID string, cardType models.CardType, record map[string]any) (*models.SavedCard, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}

	name, _ := record[models.FieldCardName].(string)
	saved := &models.SavedCard{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		CardType: cardType,
		Name:     name,
		Card:     datatypes.JSON(payload),
	}
	if err := s.db.WithContext(ctx).Create(saved).Error; err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}
	return saved, nil
}

// List returns ownerID's cards, newest first
func (s *CardStore) List(ctx context.Context, ownerID string) ([]models.SavedCard, error) {
	var cards []models.SavedCard
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(maxListedCards).
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// Get returns one of ownerID's cards
func (s *CardStore) Get(ctx context.Context, ownerID, id string) (*models.SavedCard, error) {
	var card models.SavedCard
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	return &card, nil
}

// Delete removes one of ownerID's cards
func (s *CardStore) Delete(ctx context.Context, ownerID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.SavedCard{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete card: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}
