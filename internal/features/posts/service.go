package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxImages     = 10
	MaxContentLen = 5000
	PointsPerPost = 10
	batchLimit    = 100
	batchWorkers  = 8
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotOwner        = errors.New("only the author can change this post")
	ErrEmptyPost       = errors.New("post needs text, images or a video")
	ErrTooManyImages   = errors.New("a post can have at most 10 images")
	ErrContentTooLong  = errors.New("post content is too long")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidVideo    = errors.New("video guid is required")
	ErrInvalidJSON     = errors.New("business metadata must be valid JSON")
)

type Location struct {
	PlaceID     string   `json:"place_id"`
	PlaceName   string   `json:"place_name"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CityCode    string   `json:"city_code"`
	CountryCode string   `json:"country_code"`
}

type Video struct {
	GUID         string `json:"guid"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type CreatePostRequest struct {
	Content        string          `json:"content"`
	Category       string          `json:"category"`
	Images         []string        `json:"images"`
	Video          *Video          `json:"video"`
	Location       *Location       `json:"location"`
	BusinessHours  json.RawMessage `json:"business_hours"`
	Menu           json.RawMessage `json:"menu"`
	PaymentMethods []string        `json:"payment_methods"`
}

// UpdatePostRequest changes only the fields that are set.
type UpdatePostRequest struct {
	Content        *string         `json:"content"`
	Category       *string         `json:"category"`
	Images         []string        `json:"images"`
	Location       *Location       `json:"location"`
	BusinessHours  json.RawMessage `json:"business_hours"`
	Menu           json.RawMessage `json:"menu"`
	PaymentMethods []string        `json:"payment_methods"`
}

type AttachMediaRequest struct {
	Images []string `json:"images"`
	Video  *Video   `json:"video"`
}

type FeedQuery struct {
	Page     int
	Limit    int
	City     string
	Country  string
	Category string
}

// PostView is a post decorated for a viewer.
type PostView struct {
	Post
	Author     *dto.PublicProfile `json:"author,omitempty"`
	Liked      bool               `json:"liked"`
	Bookmarked bool               `json:"bookmarked"`
}

type Service struct {
	db         *gorm.DB
	moderation *services.ModerationService
	users      *services.UserService
}

func NewService(db *gorm.DB, moderation *services.ModerationService, users *services.UserService) *Service {
	return &Service{db: db, moderation: moderation, users: users}
}

func (s *Service) Create(authorID uuid.UUID, req *CreatePostRequest) (*Post, error) {
	content := strings.TrimSpace(req.Content)
	images := cleanURLs(req.Images)

	if len(images) > MaxImages {
		return nil, ErrTooManyImages
	}
	if content == "" && len(images) == 0 && (req.Video == nil || req.Video.GUID == "") {
		return nil, ErrEmptyPost
	}
	if err := s.checkContent(content); err != nil {
		return nil, err
	}
	if err := checkCategory(req.Category); err != nil {
		return nil, err
	}

	post := &Post{
		ID:             uuid.New(),
		AuthorID:       authorID,
		Content:        content,
		Category:       req.Category,
		Images:         images,
		PaymentMethods: req.PaymentMethods,
	}
	applyLocation(post, req.Location)
	if req.Video != nil && req.Video.GUID != "" {
		applyVideo(post, req.Video)
	}
	var err error
	if post.BusinessHours, err = rawJSON(req.BusinessHours); err != nil {
		return nil, err
	}
	if post.Menu, err = rawJSON(req.Menu); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return services.IncrementUserCounter(tx, authorID, services.CounterPosts, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if err := s.users.AwardPoints(authorID, PointsPerPost, "post"); err != nil {
		slog.Warn("failed to award post points", "user_id", authorID, "error", err)
	}
	return post, nil
}

func (s *Service) Update(userID, postID uuid.UUID, req *UpdatePostRequest) (*Post, error) {
	post, err := s.owned(userID, postID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	content, imageCount := post.Content, len(post.Images)
	if req.Content != nil {
		content = strings.TrimSpace(*req.Content)
		if err := s.checkContent(content); err != nil {
			return nil, err
		}
		updates["content"] = content
	}
	if req.Category != nil {
		if err := checkCategory(*req.Category); err != nil {
			return nil, err
		}
		updates["category"] = *req.Category
	}
	if req.Images != nil {
		images := cleanURLs(req.Images)
		if len(images) > MaxImages {
			return nil, ErrTooManyImages
		}
		imageCount = len(images)
		updates["images"] = datatypes.JSONSlice[string](images)
	}
	if content == "" && imageCount == 0 && post.VideoGUID == "" {
		return nil, ErrEmptyPost
	}
	if req.Location != nil {
		applyLocation(post, req.Location)
		updates["place_id"] = post.PlaceID
		updates["place_name"] = post.PlaceName
		updates["address"] = post.Address
		updates["latitude"] = post.Latitude
		updates["longitude"] = post.Longitude
		updates["city_code"] = post.CityCode
		updates["country_code"] = post.CountryCode
	}
	if req.BusinessHours != nil {
		v, err := rawJSON(req.BusinessHours)
		if err != nil {
			return nil, err
		}
		updates["business_hours"] = v
	}
	if req.Menu != nil {
		v, err := rawJSON(req.Menu)
		if err != nil {
			return nil, err
		}
		updates["menu"] = v
	}
	if req.PaymentMethods != nil {
		updates["payment_methods"] = datatypes.JSONSlice[string](req.PaymentMethods)
	}

	if len(updates) > 0 {
		if err := s.db.Model(post).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update post: %w", err)
		}
	}
	return s.Get(postID)
}

// Delete soft-deletes a post. Admins pass asAdmin to skip the owner check.
func (s *Service) Delete(userID, postID uuid.UUID, asAdmin bool) error {
	var post Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if !asAdmin && post.AuthorID != userID {
		return ErrNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return services.IncrementUserCounter(tx, post.AuthorID, services.CounterPosts, -1)
	})
}

func (s *Service) Get(postID uuid.UUID) (*Post, error) {
	var post Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Feed lists recent posts, newest first, hiding authors the viewer blocked.
func (s *Service) Feed(viewerID uuid.UUID, q FeedQuery) ([]Post, int64, error) {
	query := s.db.Model(&Post{})
	if q.City != "" {
		query = query.Where("city_code = ?", strings.ToUpper(q.City))
	}
	if q.Country != "" {
		query = query.Where("country_code = ?", strings.ToUpper(q.Country))
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if viewerID != uuid.Nil {
		blocked, err := s.moderation.GetBlockedIDs(viewerID)
		if err != nil {
			return nil, 0, err
		}
		if len(blocked) > 0 {
			query = query.Where("author_id NOT IN ?", blocked)
		}
	}
	return s.page(query, q.Page, q.Limit)
}

func (s *Service) ByAuthor(authorID uuid.UUID, page, limit int) ([]Post, int64, error) {
	return s.page(s.db.Model(&Post{}).Where("author_id = ?", authorID), page, limit)
}

// ByAuthors lists posts written by any of authorIDs.
func (s *Service) ByAuthors(authorIDs []uuid.UUID, page, limit int) ([]Post, int64, error) {
	if len(authorIDs) == 0 {
		return []Post{}, 0, nil
	}
	return s.page(s.db.Model(&Post{}).Where("author_id IN ?", authorIDs), page, limit)
}

func (s *Service) page(query *gorm.DB, page, limit int) ([]Post, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	posts := []Post{}
	err := query.Order("created_at DESC").
		Offset(features.Offset(page, limit)).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

// BatchGet loads posts concurrently and returns those that were found, in
// the order requested. A missing or failing id never fails the batch.
func (s *Service) BatchGet(ctx context.Context, ids []uuid.UUID) ([]Post, error) {
	if len(ids) > batchLimit {
		ids = ids[:batchLimit]
	}

	found := make([]*Post, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i, id := range ids {
		g.Go(func() error {
			var post Post
			err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
			switch {
			case err == nil:
				found[i] = &post
			case !errors.Is(err, gorm.ErrRecordNotFound):
				slog.Warn("batch post fetch failed", "post_id", id, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(ids))
	for _, p := range found {
		if p != nil {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

// ToggleLike likes the post, or removes the like if it already exists.
func (s *Service) ToggleLike(userID, postID uuid.UUID) (bool, int, error) {
	return s.toggle(userID, postID, &PostLike{}, "like_count", func() interface{} {
		return &PostLike{ID: uuid.New(), PostID: postID, UserID: userID}
	})
}

func (s *Service) ToggleBookmark(userID, postID uuid.UUID) (bool, int, error) {
	return s.toggle(userID, postID, &PostBookmark{}, "bookmark_count", func() interface{} {
		return &PostBookmark{ID: uuid.New(), PostID: postID, UserID: userID}
	})
}

func (s *Service) toggle(userID, postID uuid.UUID, model interface{}, counter string, row func() interface{}) (bool, int, error) {
	var on bool
	var count int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post Post
		if err := tx.Select("id").First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(row()).Error; err != nil {
				return err
			}
			delta = 1
			on = true
		}

		q := tx.Model(&Post{}).Where("id = ?", postID)
		if delta < 0 {
			q = q.Where(counter+" > 0")
		}
		if err := q.UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error; err != nil {
			return err
		}
		return tx.Model(&Post{}).Where("id = ?", postID).Select(counter).Scan(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return on, count, nil
}

func (s *Service) Bookmarks(userID uuid.UUID, page, limit int) ([]Post, int64, error) {
	sub := s.db.Model(&PostBookmark{}).Select("post_id").Where("user_id = ?", userID)
	return s.page(s.db.Model(&Post{}).Where("id IN (?)", sub), page, limit)
}

// AttachMedia appends uploaded images and/or sets the video of a post.
func (s *Service) AttachMedia(userID, postID uuid.UUID, req *AttachMediaRequest) (*Post, error) {
	post, err := s.owned(userID, postID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if images := cleanURLs(req.Images); len(images) > 0 {
		merged := append(slices.Clone([]string(post.Images)), images...)
		if len(merged) > MaxImages {
			return nil, ErrTooManyImages
		}
		updates["images"] = datatypes.JSONSlice[string](merged)
	}
	if req.Video != nil {
		if req.Video.GUID == "" {
			return nil, ErrInvalidVideo
		}
		applyVideo(post, req.Video)
		updates["video_guid"] = post.VideoGUID
		updates["video_url"] = post.VideoURL
		updates["video_thumbnail_url"] = post.VideoThumbnailURL
		updates["video_status"] = post.VideoStatus
	}
	if len(updates) == 0 {
		return post, nil
	}

	if err := s.db.Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to attach media: %w", err)
	}
	return s.Get(postID)
}

// SetVideoStatus records the encoding state of every post using guid. A
// late processing callback never moves a ready video back.
func (s *Service) SetVideoStatus(guid, status string) (int64, error) {
	query := s.db.Model(&Post{}).Where("video_guid = ?", guid)
	if status == VideoProcessing {
		query = query.Where("video_status <> ?", VideoReady)
	}
	res := query.UpdateColumn("video_status", status)
	return res.RowsAffected, res.Error
}

// Decorate attaches author profiles and the viewer's like/bookmark state.
func (s *Service) Decorate(viewerID uuid.UUID, posts []Post) ([]PostView, error) {
	views := make([]PostView, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uuid.UUID, len(posts))
	authorIDs := make([]uuid.UUID, 0, len(posts))
	for i := range posts {
		postIDs[i] = posts[i].ID
		if !slices.Contains(authorIDs, posts[i].AuthorID) {
			authorIDs = append(authorIDs, posts[i].AuthorID)
		}
	}

	authors, err := s.users.PublicProfiles(authorIDs)
	if err != nil {
		return nil, err
	}

	liked := map[uuid.UUID]bool{}
	bookmarked := map[uuid.UUID]bool{}
	if viewerID != uuid.Nil {
		if liked, err = s.viewerSet(&PostLike{}, viewerID, postIDs); err != nil {
			return nil, err
		}
		if bookmarked, err = s.viewerSet(&PostBookmark{}, viewerID, postIDs); err != nil {
			return nil, err
		}
	}

	for i := range posts {
		views[i] = PostView{Post: posts[i], Liked: liked[posts[i].ID], Bookmarked: bookmarked[posts[i].ID]}
		if author, ok := authors[posts[i].AuthorID]; ok {
			views[i].Author = &author
		}
	}
	return views, nil
}

func (s *Service) viewerSet(model interface{}, viewerID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := s.db.Model(model).Where("user_id = ? AND post_id IN ?", viewerID, postIDs).Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CleanupUser removes the user's posts, likes and bookmarks.
func (s *Service) CleanupUser(tx *gorm.DB, userID uuid.UUID) error {
	for _, m := range []struct {
		model   interface{}
		counter string
	}{
		{&PostLike{}, "like_count"},
		{&PostBookmark{}, "bookmark_count"},
	} {
		sub := tx.Model(m.model).Select("post_id").Where("user_id = ?", userID)
		if err := tx.Model(&Post{}).Where("id IN (?) AND "+m.counter+" > 0", sub).
			UpdateColumn(m.counter, gorm.Expr(m.counter+" - 1")).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(m.model).Error; err != nil {
			return err
		}
	}

	owned := tx.Unscoped().Model(&Post{}).Select("id").Where("author_id = ?", userID)
	if err := tx.Where("post_id IN (?)", owned).Delete(&PostLike{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN (?)", owned).Delete(&PostBookmark{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Where("author_id = ?", userID).Delete(&Post{}).Error
}

func (s *Service) owned(userID, postID uuid.UUID) (*Post, error) {
	post, err := s.Get(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotOwner
	}
	return post, nil
}

func (s *Service) checkContent(content string) error {
	if len([]rune(content)) > MaxContentLen {
		return ErrContentTooLong
	}
	if content == "" {
		return nil
	}
	if ok, reason := s.moderation.Filter(content, services.FilterOptions{AllowURLs: true}); !ok {
		return services.Rejected(reason)
	}
	return nil
}

func checkCategory(category string) error {
	if category == "" || slices.Contains(Categories, category) {
		return nil
	}
	return ErrInvalidCategory
}

func applyLocation(post *Post, loc *Location) {
	if loc == nil {
		return
	}
	post.PlaceID = loc.PlaceID
	post.PlaceName = strings.TrimSpace(loc.PlaceName)
	post.Address = strings.TrimSpace(loc.Address)
	post.Latitude = loc.Latitude
	post.Longitude = loc.Longitude
	post.CityCode = strings.ToUpper(loc.CityCode)
	post.CountryCode = strings.ToUpper(loc.CountryCode)
}

func applyVideo(post *Post, v *Video) {
	post.VideoGUID = v.GUID
	post.VideoURL = v.URL
	post.VideoThumbnailURL = v.ThumbnailURL
	post.VideoStatus = VideoProcessing
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func rawJSON(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, ErrInvalidJSON
	}
	return datatypes.JSON(raw), nil
}
