package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrAlreadyBlocked     = errors.New("user already blocked")
	ErrSelfBlock          = errors.New("cannot block yourself")
	ErrInvalidContentType = errors.New("invalid content_type: must be user, post, comment, companion, or chat")
	ErrReasonRequired     = errors.New("reason is required")
	ErrInvalidReportState = errors.New("invalid status: must be reviewed, actioned, or dismissed")
	ErrContentRejected    = errors.New("content rejected")
)

const (
	RejectInappropriate = "inappropriate_language"
	RejectURL           = "url_not_allowed"
	RejectContactInfo   = "contact_info_not_allowed"
	RejectSpam          = "spam_detected"
	RejectCaps          = "excessive_caps"
)

// Latin entries match on word boundaries; Hangul entries match as
// substrings since Korean attaches particles directly to the stem.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "faggot", "retard",
	"porn", "porno", "nudes",
	"scam", "scammer", "phishing",
}

var BannedWordsKo = []string{
	"씨발", "시발", "씨바", "ㅅㅂ", "ㅆㅂ", "병신", "ㅂㅅ", "좆", "개새끼", "개새기",
	"미친놈", "미친년", "지랄", "닥쳐", "꺼져", "니애미", "느금마",
	"조건만남", "성매매", "출장안마",
}

var validReportTypes = map[string]bool{
	"user": true, "post": true, "comment": true, "companion": true, "chat": true,
}

// RejectedError carries the filter reason for rejected user text.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "content rejected: " + e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrContentRejected
}

func Rejected(reason string) error {
	return &RejectedError{Reason: reason}
}

// RejectionReason extracts the filter reason from err, or "".
func RejectionReason(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}

// FilterOptions relaxes the default checks for a content kind.
type FilterOptions struct {
	// AllowURLs lets posts link to menus, maps and booking pages.
	AllowURLs bool
	// AllowContactInfo lets business posts carry a phone number.
	AllowContactInfo bool
}

type ModerationService struct {
	db                *gorm.DB
	bannedWordRegexps []*regexp.Regexp
	bannedSubstrings  []string
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	phonePattern      *regexp.Regexp
	allCapsPattern    *regexp.Regexp
}

func NewModerationService(db *gorm.DB) *ModerationService {
	ms := &ModerationService{
		db:               db,
		bannedSubstrings: BannedWordsKo,
	}

	ms.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		ms.bannedWordRegexps = append(ms.bannedWordRegexps, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}

	ms.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	ms.emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// Korean mobile (010-1234-5678) and NANP style numbers.
	ms.phonePattern = regexp.MustCompile(`01[016789][-.\s]?\d{3,4}[-.\s]?\d{4}|\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)
	ms.allCapsPattern = regexp.MustCompile(`[A-Z]{5,}`)
	return ms
}

// FilterContent applies the strict rules used for profiles, companion
// messages and chat.
func (ms *ModerationService) FilterContent(text string) (bool, string) {
	return ms.Filter(text, FilterOptions{})
}

func (ms *ModerationService) Filter(text string, opts FilterOptions) (bool, string) {
	if strings.TrimSpace(text) == "" {
		return true, ""
	}
	if ms.ContainsProfanity(text) {
		return false, RejectInappropriate
	}
	if !opts.AllowURLs && ms.urlPattern.MatchString(text) {
		return false, RejectURL
	}
	if !opts.AllowContactInfo {
		if ms.emailPattern.MatchString(text) || ms.phonePattern.MatchString(text) {
			return false, RejectContactInfo
		}
	}
	if hasLongRun(text) {
		return false, RejectSpam
	}
	if len(ms.allCapsPattern.FindAllString(text, -1)) > 2 {
		return false, RejectCaps
	}
	return true, ""
}

func (ms *ModerationService) ContainsProfanity(text string) bool {
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			return true
		}
	}
	compact := strings.Join(strings.Fields(text), "")
	for _, word := range ms.bannedSubstrings {
		if strings.Contains(compact, word) {
			return true
		}
	}
	return false
}

// hasLongRun reports six or more repeats of one rune.
func hasLongRun(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= 6 {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}

func (ms *ModerationService) GetRejectionMessage(reason, lang string) string {
	messages := map[string][2]string{
		RejectInappropriate: {"부적절한 표현이 포함되어 있습니다.", "Your text contains inappropriate language."},
		RejectURL:           {"링크는 허용되지 않습니다.", "URLs and web links are not allowed."},
		RejectContactInfo:   {"연락처 정보는 허용되지 않습니다.", "Contact information is not allowed."},
		RejectSpam:          {"스팸으로 의심되는 내용입니다.", "Your text appears to be spam."},
		RejectCaps:          {"대문자를 과도하게 사용하지 마세요.", "Please avoid using excessive capital letters."},
	}
	idx := 1
	if lang == "ko" {
		idx = 0
	}
	if msg, ok := messages[reason]; ok {
		return msg[idx]
	}
	if idx == 0 {
		return "커뮤니티 가이드라인에 맞지 않는 내용입니다."
	}
	return "Your text does not meet our community guidelines."
}

func (s *ModerationService) CreateReport(reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	if !validReportTypes[req.ContentType] {
		return nil, ErrInvalidContentType
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrReasonRequired
	}

	report := models.Report{
		ID:          uuid.New(),
		ReporterID:  reporterID,
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Reason:      req.Reason,
		Status:      "pending",
	}

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ModerationService) ListReports(status string, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := s.db.Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *ModerationService) ActionReport(reportID uuid.UUID, req *dto.ActionReportRequest) error {
	validStatuses := map[string]bool{"reviewed": true, "actioned": true, "dismissed": true}
	if !validStatuses[req.Status] {
		return ErrInvalidReportState
	}

	result := s.db.Model(&models.Report{}).
		Where("id = ?", reportID).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"admin_note": req.AdminNote,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *ModerationService) BlockUser(blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	var existing models.Block
	if err := s.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).First(&existing).Error; err == nil {
		return ErrAlreadyBlocked
	}

	block := models.Block{
		ID:        uuid.New(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
	return s.db.Create(&block).Error
}

func (s *ModerationService) UnblockUser(blockerID, blockedID uuid.UUID) error {
	return s.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
}

func (s *ModerationService) GetBlockedIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.Model(&models.Block{}).Where("blocker_id = ?", userID).Pluck("blocked_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// IsBlockedEither reports whether either user has blocked the other.
func (s *ModerationService) IsBlockedEither(a, b uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}
