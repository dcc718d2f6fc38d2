package services

import (
	"moodcircle/internal/crypto"
	"moodcircle/internal/models"
)

// EncryptionService seals journal content before it reaches the store. A nil
// *EncryptionService leaves content untouched, which is the default when no key is set.
type EncryptionService struct {
	sealer *crypto.Sealer
}

// NewEncryptionService creates a new encryption service from a 32-byte key
func NewEncryptionService(key []byte) (*EncryptionService, error) {
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{sealer: sealer}, nil
}

// SealJournal encrypts sensitive journal fields before storing
func (s *EncryptionService) SealJournal(journal *models.Journal) error {
	if s == nil {
		return nil
	}
	sealed, err := s.sealer.Seal(journal.Content)
	if err != nil {
		return err
	}
	journal.Content = sealed
	return nil
}

// OpenJournal decrypts sensitive journal fields after loading
func (s *EncryptionService) OpenJournal(journal *models.Journal) error {
	if s == nil {
		return nil
	}
	content, err := s.sealer.Open(journal.Content)
	if err != nil {
		return err
	}
	journal.Content = content
	return nil
}

// OpenJournals decrypts every journal in place.
func (s *EncryptionService) OpenJournals(journals []models.Journal) error {
	for i := range journals {
		if err := s.OpenJournal(&journals[i]); err != nil {
			return err
		}
	}
	return nil
}
