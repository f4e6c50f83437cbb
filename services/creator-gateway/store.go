package creatorgateway

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrProfileNotFound indicates no profile is linked to the wallet.
var ErrProfileNotFound = errors.New("profile not found")

const usernameAttempts = 8

// Store persists creator profiles.
type Store struct {
	db         *gorm.DB
	usernameFn func() (string, error)
}

func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database required")
	}
	return &Store{db: db, usernameFn: randomUsername}, nil
}

// ProfileByWallet returns the profile linked to wallet.
func (s *Store) ProfileByWallet(ctx context.Context, wallet string) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByID returns the profile with the given id.
func (s *Store) ProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile onboards a wallet with a generated username. Username
// collisions are retried with a fresh suffix.
func (s *Store) CreateProfile(ctx context.Context, wallet, email string) (*Profile, error) {
	var lastErr error
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		username, err := s.usernameFn()
		if err != nil {
			return nil, err
		}
		taken, err := s.usernameTaken(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			lastErr = fmt.Errorf("username %s taken", username)
			continue
		}
		profile := &Profile{
			ID:            uuid.New(),
			Username:      username,
			Email:         email,
			WalletAddress: wallet,
		}
		if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
			return nil, err
		}
		return profile, nil
	}
	return nil, fmt.Errorf("allocate username: %w", lastErr)
}

// EmailTaken reports whether email is already bound to another wallet.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Profile{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) usernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Profile{}).Where("LOWER(username) = ?", strings.ToLower(username)).Count(&count).Error
	return count > 0, err
}

// randomUsername returns "user" followed by a random 16-bit number.
func randomUsername() (string, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("user%d", binary.BigEndian.Uint16(buf[:])), nil
}
