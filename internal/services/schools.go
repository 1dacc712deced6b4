package services

import (
	"context"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SchoolService struct {
	store repository.SchoolRepository
	now   func() time.Time
}

func NewSchoolService(store repository.SchoolRepository) *SchoolService {
	return &SchoolService{store: store, now: time.Now}
}

func (s *SchoolService) Create(ctx context.Context, name string) (*models.School, error) {
	name = strings.TrimSpace(name)
	if err := utils.ValidateText("name", name, 2, 120); err != nil {
		return nil, err
	}
	school := &models.School{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSchool(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *SchoolService) List(ctx context.Context) ([]models.School, error) {
	return s.store.ListSchools(ctx)
}
