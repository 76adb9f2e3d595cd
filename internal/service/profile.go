package service

import (
	"context"
	"strings"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/repository"
)

// ProfileInput holds the member-editable profile fields. Nil means unchanged.
type ProfileInput struct {
	Name        *string
	PhoneNumber *string
	Address     *string
	AvatarURL   *string
	DeviceToken *string
}

type profileService struct {
	memberRepo repository.MemberRepository
}

func NewProfileService(memberRepo repository.MemberRepository) ProfileService {
	return &profileService{memberRepo: memberRepo}
}

func (s *profileService) GetProfile(ctx context.Context, actor domain.Actor) (*domain.Member, error) {
	return s.memberRepo.GetByID(ctx, actor.MemberID)
}

func (s *profileService) UpdateProfile(ctx context.Context, actor domain.Actor, input ProfileInput) (*domain.Member, error) {
	m, err := s.memberRepo.GetByID(ctx, actor.MemberID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Errorf(domain.ErrValidation, "name cannot be empty")
		}
		m.Name = name
	}
	if input.PhoneNumber != nil {
		m.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.Address != nil {
		m.Address = strings.TrimSpace(*input.Address)
	}
	if input.AvatarURL != nil {
		m.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}
	if input.DeviceToken != nil {
		m.DeviceToken = strings.TrimSpace(*input.DeviceToken)
	}
	if err := s.memberRepo.UpdateProfile(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
