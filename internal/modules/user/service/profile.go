package service

import (
	"context"
	"fmt"
	"log/slog"

	"anoa.com/civicreport/internal/entity"
	deletion "anoa.com/civicreport/internal/modules/deletion/service"
	reportdto "anoa.com/civicreport/internal/modules/report/dto"
	"anoa.com/civicreport/internal/modules/user/dto"
	"anoa.com/civicreport/internal/modules/user/repository"
	"anoa.com/civicreport/internal/policy"
	"anoa.com/civicreport/pkg/password"
	"anoa.com/civicreport/pkg/sanitize"
	"anoa.com/civicreport/pkg/storage"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
)

// ReportFinder resolves the reports owned by a user. Reports are a derived
// view of the user, never stored on it.
type ReportFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Report, error)
}

// ReportIndex removes reports from the search index.
type ReportIndex interface {
	DeleteReports(ids []uuid.UUID) error
}

type ProfileService interface {
	GetAllUsers(ctx context.Context) ([]entity.User, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, claims *token.Claims, input dto.UpdateProfileInput) (*dto.ProfileResponse, error)
	DeleteProfile(ctx context.Context, id uuid.UUID, claims *token.Claims) (*deletion.UserDeletion, error)
	UploadProfilePhoto(ctx context.Context, claims *token.Claims, file dto.PhotoFile) (*dto.PhotoUploadResponse, error)
	CountUsers(ctx context.Context) (int64, error)
}

type profileService struct {
	repo         repository.UserRepository
	reports      ReportFinder
	hasher       password.Hasher
	imageStorage storage.ImageStorage
	uploadFolder string
	deleter      deletion.Service
	index        ReportIndex
}

func NewProfileService(
	repo repository.UserRepository,
	reports ReportFinder,
	hasher password.Hasher,
	imageStorage storage.ImageStorage,
	uploadFolder string,
	deleter deletion.Service,
	index ReportIndex,
) ProfileService {
	return &profileService{
		repo:         repo,
		reports:      reports,
		hasher:       hasher,
		imageStorage: imageStorage,
		uploadFolder: uploadFolder,
		deleter:      deleter,
		index:        index,
	}
}

func (s *profileService) GetAllUsers(ctx context.Context) ([]entity.User, error) {
	return s.repo.FindAll(ctx)
}

func (s *profileService) GetProfile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

func (s *profileService) UpdateProfile(ctx context.Context, id uuid.UUID, claims *token.Claims, input dto.UpdateProfileInput) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Admins may delete any account but only the owner edits a profile.
	if err := policy.Authorize(claims, policy.OwnerOnly, user.ID); err != nil {
		return nil, err
	}

	if username := sanitize.Optional(input.Username); username != nil {
		if err := validateUsername(*username); err != nil {
			return nil, err
		}
		user.Username = *username
	}
	if bio := sanitize.Optional(input.Bio); bio != nil {
		user.Bio = *bio
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.buildProfile(ctx, user)
}

func (s *profileService) DeleteProfile(ctx context.Context, id uuid.UUID, claims *token.Claims) (*deletion.UserDeletion, error) {
	result, err := s.deleter.DeleteUser(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	if s.index != nil && len(result.ReportIDs) > 0 {
		if err := s.index.DeleteReports(result.ReportIDs); err != nil {
			slog.Warn("failed to unindex reports of deleted user", "user_id", id, "error", err)
		}
	}

	return result, nil
}

func (s *profileService) UploadProfilePhoto(ctx context.Context, claims *token.Claims, file dto.PhotoFile) (*dto.PhotoUploadResponse, error) {
	if err := policy.Authorize(claims, policy.Authenticated, uuid.Nil); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.imageStorage.UploadImage(ctx, file.Reader, s.uploadFolder+"/profiles", file.FileName)
	if err != nil {
		return nil, err
	}

	if user.ProfilePhoto.HasRemote() {
		if err := s.imageStorage.DeleteImage(ctx, *user.ProfilePhoto.PublicID); err != nil {
			return nil, fmt.Errorf("failed to release previous profile photo: %w", err)
		}
	}

	user.ProfilePhoto = entity.Image{URL: uploaded.URL, PublicID: &uploaded.PublicID}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &dto.PhotoUploadResponse{
		Message:      "your profile photo uploaded successfully",
		ProfilePhoto: user.ProfilePhoto,
	}, nil
}

func (s *profileService) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *profileService) buildProfile(ctx context.Context, user *entity.User) (*dto.ProfileResponse, error) {
	reports, err := s.reports.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.ProfileResponse{User: *user, Reports: reportdto.NewReportResponses(reports)}, nil
}
