package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxBiographyLength = 300
	MaxInterestLength  = 100
	MaxAvatarBytes     = 5 << 20
	birthdayLayout     = "2006-01-02"
)

// ErrStorageUnavailable is returned by SetAvatar when no file storage is
// configured.
var ErrStorageUnavailable = errors.New("file storage is not configured")

type ProfileService struct {
	store   repository.Store
	users   repository.UserRepository
	friends *FriendService
	vip     *VIPService
	dir     *Directory
	files   FileStorage
	now     func() time.Time
}

func NewProfileService(store repository.Store, users repository.UserRepository, friends *FriendService, vip *VIPService, dir *Directory, files FileStorage) *ProfileService {
	return &ProfileService{
		store:   store,
		users:   users,
		friends: friends,
		vip:     vip,
		dir:     dir,
		files:   files,
		now:     time.Now,
	}
}

// ProfileView is the public projection of a user and their account.
type ProfileView struct {
	ID            string              `json:"id"`
	Username      string              `json:"username"`
	IsVerified    bool                `json:"is_verified"`
	Avatar        string              `json:"avatar"`
	Biography     string              `json:"biography"`
	Instagram     string              `json:"instagram"`
	Birthday      *time.Time          `json:"birthday,omitempty"`
	Interest      string              `json:"interest"`
	School        *models.School      `json:"school,omitempty"`
	IsVIP         bool                `json:"is_vip"`
	TotalViews    int64               `json:"total_views"`
	UniqueViewers int                 `json:"unique_viewers"`
	FriendCount   int                 `json:"friend_count"`
	FriendStatus  models.FriendStatus `json:"friend_status"`
	IsSelf        bool                `json:"is_self"`
	CoinBalance   *int64              `json:"coin_balance,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// View loads username's profile and counts the visit. viewerID is empty
// for anonymous callers.
func (s *ProfileService) View(ctx context.Context, username, viewerID string) (*ProfileView, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if _, err := s.RecordView(ctx, user.ID, viewerID); err != nil {
		return nil, err
	}

	acc, err := s.store.GetAccount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	view := &ProfileView{
		ID:            user.ID,
		Username:      user.Username,
		IsVerified:    user.IsVerified,
		Avatar:        acc.Avatar,
		Biography:     acc.Biography,
		Instagram:     acc.Instagram,
		Birthday:      acc.Birthday,
		Interest:      acc.Interest,
		IsVIP:         acc.IsVIP(now),
		TotalViews:    acc.TotalViews,
		UniqueViewers: acc.UniqueViewers(),
		IsSelf:        viewerID == user.ID,
		CreatedAt:     user.CreatedAt,
	}
	if view.IsSelf {
		balance := acc.CoinBalance
		view.CoinBalance = &balance
	}

	if acc.SchoolID != nil {
		school, err := s.store.GetSchool(ctx, *acc.SchoolID)
		switch {
		case err == nil:
			view.School = school
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	if view.FriendCount, err = s.friends.CountFriends(ctx, user.ID); err != nil {
		return nil, err
	}
	if view.FriendStatus, err = s.friends.Status(ctx, viewerID, user.ID); err != nil {
		return nil, err
	}
	return view, nil
}

// RecordView counts viewerID's visit to subjectID's profile. Anonymous,
// own-profile and VIP viewers are never counted.
func (s *ProfileService) RecordView(ctx context.Context, subjectID, viewerID string) (bool, error) {
	switch {
	case viewerID == "":
		metrics.RecordProfileView("anonymous")
		return false, nil
	case viewerID == subjectID:
		metrics.RecordProfileView("self")
		return false, nil
	}

	vip, err := s.vip.IsVIP(ctx, viewerID)
	if err != nil {
		return false, err
	}
	if vip {
		metrics.RecordProfileView("vip_exempt")
		return false, nil
	}

	var counted bool
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.store.GetAccount(ctx, subjectID)
		if err != nil {
			return err
		}
		counted = acc.RecordView(viewerID, s.now().UTC())
		if !counted {
			return nil
		}
		return s.store.SaveViews(ctx, acc)
	})
	if err != nil {
		return false, err
	}

	if counted {
		metrics.RecordProfileView("counted")
	} else {
		metrics.RecordProfileView("cooldown")
	}
	return counted, nil
}

// Viewer is one row of the who-viewed-me list.
type Viewer struct {
	models.UserSummary
	ViewedAt time.Time `json:"viewed_at"`
}

// WhoViewed is the caller's view statistics. Viewers is only filled in
// while the caller holds VIP.
type WhoViewed struct {
	TotalViews    int64    `json:"total_views"`
	UniqueViewers int      `json:"unique_viewers"`
	VIPRequired   bool     `json:"vip_required"`
	Viewers       []Viewer `json:"viewers"`
}

func (s *ProfileService) WhoViewed(ctx context.Context, userID string) (*WhoViewed, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &WhoViewed{
		TotalViews:    acc.TotalViews,
		UniqueViewers: acc.UniqueViewers(),
		Viewers:       []Viewer{},
	}
	if !acc.IsVIP(s.now()) {
		res.VIPRequired = true
		return res, nil
	}

	recent := acc.RecentViewers(models.RecentViewersShown)
	ids := make([]string, len(recent))
	for i, e := range recent {
		ids[i] = e.ViewerID
	}
	summaries, err := s.dir.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.UserSummary, len(summaries))
	for _, sum := range summaries {
		byID[sum.ID] = sum
	}
	for _, e := range recent {
		sum, ok := byID[e.ViewerID]
		if !ok {
			continue
		}
		res.Viewers = append(res.Viewers, Viewer{UserSummary: sum, ViewedAt: e.ViewedAt})
	}
	return res, nil
}

// UpdateProfileRequest is the PUT /users/update body. Absent fields are
// left alone; an empty instagram clears the handle.
type UpdateProfileRequest struct {
	Biography *string `json:"biography"`
	Instagram *string `json:"instagram"`
	Birthday  *string `json:"birthday"`
	Interest  *string `json:"interest"`
	School    *string `json:"school"`
}

func (r *UpdateProfileRequest) toUpdate(now time.Time) (repository.ProfileUpdate, error) {
	var upd repository.ProfileUpdate
	empty := true

	if r.Biography != nil {
		bio := strings.TrimSpace(*r.Biography)
		if err := utils.ValidateText("biography", bio, 0, MaxBiographyLength); err != nil {
			return upd, err
		}
		upd.Biography = &bio
		empty = false
	}
	if r.Interest != nil {
		interest := strings.TrimSpace(*r.Interest)
		if err := utils.ValidateText("interest", interest, 0, MaxInterestLength); err != nil {
			return upd, err
		}
		upd.Interest = &interest
		empty = false
	}
	if r.Instagram != nil {
		handle := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(*r.Instagram), "@"))
		if handle != "" {
			if err := utils.ValidateInstagram(handle); err != nil {
				return upd, err
			}
		}
		upd.Instagram = &handle
		empty = false
	}
	if r.Birthday != nil {
		day, err := time.Parse(birthdayLayout, strings.TrimSpace(*r.Birthday))
		if err != nil {
			return upd, apperr.Validation("birthday must be formatted as YYYY-MM-DD")
		}
		if !day.Before(now) {
			return upd, apperr.Validation("birthday must be in the past")
		}
		upd.Birthday = &day
		empty = false
	}
	if r.School != nil {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(*r.School))
		if err != nil {
			return upd, apperr.Validation("invalid school id")
		}
		upd.SchoolID = &id
		empty = false
	}

	if empty {
		return upd, apperr.Validation("no fields to update")
	}
	return upd, nil
}

// UpdateProfile applies req to userID's account. Changing school moves the
// membership count in the same transaction.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Account, error) {
	upd, err := req.toUpdate(s.now())
	if err != nil {
		return nil, err
	}

	var updated *models.Account
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.store.GetAccount(ctx, userID)
		if err != nil {
			return err
		}

		if upd.Instagram != nil && *upd.Instagram != "" {
			taken, err := s.store.InstagramTaken(ctx, *upd.Instagram, userID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("instagram handle is already in use")
			}
		}

		if upd.SchoolID != nil {
			if err := s.transferSchool(ctx, acc.SchoolID, *upd.SchoolID); err != nil {
				return err
			}
		}

		updated, err = s.store.UpdateProfile(ctx, userID, upd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ProfileService) transferSchool(ctx context.Context, from *primitive.ObjectID, to primitive.ObjectID) error {
	if from != nil && *from == to {
		return nil
	}
	if _, err := s.store.GetSchool(ctx, to); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("invalid school id")
		}
		return err
	}
	if err := s.store.IncSchoolMembers(ctx, to, 1); err != nil {
		return err
	}
	if from == nil {
		return nil
	}
	err := s.store.IncSchoolMembers(ctx, *from, -1)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}

// SetAvatar stores the upload and points the account at it. The previous
// avatar is removed afterwards on a best-effort basis.
func (s *ProfileService) SetAvatar(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if s.files == nil {
		return "", ErrStorageUnavailable
	}
	if len(data) == 0 {
		return "", apperr.Validation("file is empty")
	}
	if len(data) > MaxAvatarBytes {
		return "", apperr.Validation("file must be at most 5MB")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("file must be an image")
	}
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return "", err
	}

	url, err := s.files.Store(ctx, data, contentType)
	if err != nil {
		return "", err
	}

	previous, err := s.store.SetAvatar(ctx, userID, url)
	if err != nil {
		s.deleteFile(ctx, url)
		return "", err
	}
	if previous != "" && previous != url {
		s.deleteFile(ctx, previous)
	}
	return url, nil
}

func (s *ProfileService) deleteFile(ctx context.Context, url string) {
	if err := s.files.Delete(ctx, url); err != nil {
		log.WithError(err).WithField("url", url).Warn("⚠️  failed to delete stored file")
	}
}
