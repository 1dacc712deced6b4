package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const resetTimeout = time.Minute

type ClubService struct {
	store repository.Store
	dir   *Directory
	vip   *VIPService
	now   func() time.Time
}

func NewClubService(store repository.Store, dir *Directory, vip *VIPService) *ClubService {
	return &ClubService{store: store, dir: dir, vip: vip, now: time.Now}
}

// ClubView hides who is going unless the caller is VIP.
type ClubView struct {
	models.Club
	GoingCount int                  `json:"going_count"`
	CheckedIn  bool                 `json:"checked_in"`
	Going      []models.UserSummary `json:"going,omitempty"`
}

// CreateClubRequest is the admin body for a new club.
type CreateClubRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (s *ClubService) Create(ctx context.Context, req CreateClubRequest) (*models.Club, error) {
	name := strings.TrimSpace(req.Name)
	if err := utils.ValidateText("name", name, 2, 80); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(req.Address)
	if err := utils.ValidateText("address", address, 0, 200); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Club{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Address:    address,
		GoingToday: []string{},
		CreatedAt:  now,
		ResetAt:    now,
	}
	if err := s.store.CreateClub(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClubService) List(ctx context.Context, viewerID string) ([]ClubView, error) {
	clubs, err := s.store.ListClubs(ctx)
	if err != nil {
		return nil, err
	}
	vip, err := s.isVIP(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]ClubView, 0, len(clubs))
	for i := range clubs {
		v, err := s.view(ctx, &clubs[i], viewerID, vip)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *ClubService) Get(ctx context.Context, viewerID string, id primitive.ObjectID) (*ClubView, error) {
	c, err := s.store.GetClub(ctx, id)
	if err != nil {
		return nil, err
	}
	vip, err := s.isVIP(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c, viewerID, vip)
}

// CheckIn adds userID to today's list. Checking in twice is a no-op.
func (s *ClubService) CheckIn(ctx context.Context, userID string, id primitive.ObjectID) (*ClubView, error) {
	if err := s.store.AddGoing(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func (s *ClubService) CancelCheckIn(ctx context.Context, userID string, id primitive.ObjectID) (*ClubView, error) {
	if err := s.store.RemoveGoing(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// ResetDaily clears every club's list in one bulk write.
func (s *ClubService) ResetDaily(ctx context.Context) (int64, error) {
	n, err := s.store.ResetGoing(ctx, s.now().UTC())
	metrics.RecordClubReset(err == nil)
	return n, err
}

// StartDailyReset schedules ResetDaily. The caller stops the returned
// scheduler on shutdown.
func (s *ClubService) StartDailyReset(schedule string, loc *time.Location) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()

		n, err := s.ResetDaily(ctx)
		if err != nil {
			log.WithError(err).Error("❌ club check-in reset failed")
			return
		}
		log.WithField("clubs", n).Info("✅ club check-ins reset")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid club reset schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

func (s *ClubService) view(ctx context.Context, c *models.Club, viewerID string, vip bool) (*ClubView, error) {
	v := &ClubView{Club: *c, GoingCount: len(c.GoingToday)}
	for _, id := range c.GoingToday {
		if id == viewerID {
			v.CheckedIn = true
			break
		}
	}
	if vip {
		going, err := s.dir.Summaries(ctx, c.GoingToday)
		if err != nil {
			return nil, err
		}
		v.Going = going
	}
	return v, nil
}

func (s *ClubService) isVIP(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.vip.IsVIP(ctx, userID)
}
