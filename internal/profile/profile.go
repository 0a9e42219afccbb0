package profile

import (
	"context"
	"strings"

	"github.com/arztportal/patient-portal/internal/apperrors"
)

// Profile is the patient's own record, managed by the profile collaborator.
type Profile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
	Insurance string `json:"insurance"`
}

// Client contains the profile calls needed by the service.
type Client interface {
	FetchProfile(ctx context.Context, userID string) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error
}

// Service is a thin boundary over the remote profile endpoints. The caller
// always supplies the user identifier; there is no default user.
type Service struct {
	client Client
}

func NewService(client Client) *Service {
	return &Service{client: client}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, apperrors.Validation(apperrors.FieldError{Field: "user_id", Reason: "required"})
	}
	return s.client.FetchProfile(ctx, userID)
}

func (s *Service) Save(ctx context.Context, p Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return apperrors.Validation(apperrors.FieldError{Field: "user_id", Reason: "required"})
	}
	return s.client.UpdateProfile(ctx, p)
}
