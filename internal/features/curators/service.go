package curators

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSelfFollow = errors.New("cannot follow yourself")
	ErrNotCurator = errors.New("user is not a curator")
)

type CuratorView struct {
	dto.PublicProfile
	Following bool `json:"following"`
}

type Service struct {
	db       *gorm.DB
	posts    *posts.Service
	notifier services.Notifier
}

func NewService(db *gorm.DB, posts *posts.Service, notifier services.Notifier) *Service {
	return &Service{db: db, posts: posts, notifier: notifier}
}

// ToggleFollow follows the curator, or unfollows if already following.
func (s *Service) ToggleFollow(followerID, curatorID uuid.UUID) (bool, int, error) {
	curator, err := s.curator(followerID, curatorID)
	if err != nil {
		return false, 0, err
	}

	following, err := s.IsFollowing(followerID, curatorID)
	if err != nil {
		return false, 0, err
	}
	if following {
		if err := s.Unfollow(followerID, curatorID); err != nil {
			return false, 0, err
		}
	} else {
		if err := s.follow(followerID, curator); err != nil {
			return false, 0, err
		}
	}

	count, err := s.followerCount(curatorID)
	return !following, count, err
}

func (s *Service) follow(followerID uuid.UUID, curator *models.User) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		f := &Follow{ID: uuid.New(), FollowerID: followerID, CuratorID: curator.ID}
		if err := tx.Create(f).Error; err != nil {
			return err
		}
		return adjustCounts(tx, followerID, curator.ID, 1)
	})
	if err != nil {
		return fmt.Errorf("failed to follow curator: %w", err)
	}

	var follower models.User
	if err := s.db.Select("id", "name").First(&follower, "id = ?", followerID).Error; err == nil {
		s.notifier.Notify(curator.ID, followNotification(curator.Language, follower.Name))
	}
	return nil
}

// Unfollow is a no-op when the user does not follow the curator.
func (s *Service) Unfollow(followerID, curatorID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND curator_id = ?", followerID, curatorID).Delete(&Follow{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return adjustCounts(tx, followerID, curatorID, -1)
	})
}

func adjustCounts(tx *gorm.DB, followerID, curatorID uuid.UUID, delta int) error {
	if err := services.IncrementUserCounter(tx, curatorID, services.CounterFollowers, delta); err != nil {
		return err
	}
	return services.IncrementUserCounter(tx, followerID, services.CounterFollowing, delta)
}

func (s *Service) IsFollowing(followerID, curatorID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&Follow{}).
		Where("follower_id = ? AND curator_id = ?", followerID, curatorID).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) Followers(curatorID uuid.UUID, page, limit int) ([]dto.PublicProfile, int64, error) {
	sub := s.db.Model(&Follow{}).Select("follower_id").Where("curator_id = ?", curatorID)
	return s.profiles(s.db.Model(&models.User{}).Where("id IN (?)", sub), "created_at DESC", page, limit)
}

func (s *Service) Following(userID uuid.UUID, page, limit int) ([]dto.PublicProfile, int64, error) {
	sub := s.db.Model(&Follow{}).Select("curator_id").Where("follower_id = ?", userID)
	return s.profiles(s.db.Model(&models.User{}).Where("id IN (?)", sub), "name ASC", page, limit)
}

// ListCurators returns curators ordered by follower count, flagged with
// whether viewerID follows them.
func (s *Service) ListCurators(viewerID uuid.UUID, page, limit int) ([]CuratorView, int64, error) {
	query := s.db.Model(&models.User{}).Where("role = ?", models.RoleCurator)
	profiles, total, err := s.profiles(query, "follower_count DESC, created_at ASC", page, limit)
	if err != nil {
		return nil, 0, err
	}

	followed := map[uuid.UUID]bool{}
	if viewerID != uuid.Nil && len(profiles) > 0 {
		ids := make([]uuid.UUID, len(profiles))
		for i := range profiles {
			ids[i] = profiles[i].ID
		}
		var got []uuid.UUID
		if err := s.db.Model(&Follow{}).
			Where("follower_id = ? AND curator_id IN ?", viewerID, ids).
			Pluck("curator_id", &got).Error; err != nil {
			return nil, 0, err
		}
		for _, id := range got {
			followed[id] = true
		}
	}

	views := make([]CuratorView, len(profiles))
	for i := range profiles {
		views[i] = CuratorView{PublicProfile: profiles[i], Following: followed[profiles[i].ID]}
	}
	return views, total, nil
}

// CuratorFeed lists posts written by the curators userID follows.
func (s *Service) CuratorFeed(userID uuid.UUID, page, limit int) ([]posts.Post, int64, error) {
	var curatorIDs []uuid.UUID
	if err := s.db.Model(&Follow{}).Where("follower_id = ?", userID).Pluck("curator_id", &curatorIDs).Error; err != nil {
		return nil, 0, err
	}
	return s.posts.ByAuthors(curatorIDs, page, limit)
}

// SetCurator grants or revokes the curator role. Admins are left alone.
func (s *Service) SetCurator(userID uuid.UUID, curator bool) error {
	role := models.RoleUser
	if curator {
		role = models.RoleCurator
	}
	res := s.db.Model(&models.User{}).
		Where("id = ? AND role <> ?", userID, models.RoleAdmin).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrUserNotFound
	}
	return nil
}

func (s *Service) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	var follows []Follow
	if err := tx.Where("follower_id = ? OR curator_id = ?", userID, userID).Find(&follows).Error; err != nil {
		return err
	}
	for _, f := range follows {
		if err := adjustCounts(tx, f.FollowerID, f.CuratorID, -1); err != nil {
			return err
		}
	}
	return tx.Where("follower_id = ? OR curator_id = ?", userID, userID).Delete(&Follow{}).Error
}

func (s *Service) curator(followerID, curatorID uuid.UUID) (*models.User, error) {
	if followerID == curatorID {
		return nil, ErrSelfFollow
	}
	var user models.User
	if err := s.db.First(&user, "id = ?", curatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsCurator() {
		return nil, ErrNotCurator
	}
	return &user, nil
}

func (s *Service) followerCount(curatorID uuid.UUID) (int, error) {
	var user models.User
	if err := s.db.Select("id", "follower_count").First(&user, "id = ?", curatorID).Error; err != nil {
		return 0, err
	}
	return user.FollowerCount, nil
}

func (s *Service) profiles(query *gorm.DB, order string, page, limit int) ([]dto.PublicProfile, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := query.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	out := make([]dto.PublicProfile, len(users))
	for i := range users {
		out[i] = *services.ToPublicProfile(&users[i])
	}
	return out, total, nil
}

func followNotification(lang, followerName string) services.Notification {
	n := services.Notification{
		Title: "New follower",
		Body:  followerName + " started following you.",
		Data:  map[string]string{"type": "curator_follow"},
	}
	if lang == "ko" {
		n.Title = "새 팔로워"
		n.Body = followerName + "님이 회원님을 팔로우하기 시작했어요."
	}
	return n
}
