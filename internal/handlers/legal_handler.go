package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/gofiber/fiber/v2"
)

const (
	serviceName  = "TripMate"
	supportEmail = "support@tripmate.app"
	legalStyle   = `body{font-family:-apple-system,BlinkMacSystemFont,"Apple SD Gothic Neo",sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}`
)

type legalSection struct {
	heading string
	body    string
}

type legalDoc struct {
	title    string
	updated  string
	sections []legalSection
}

var privacyDocs = map[string]legalDoc{
	"ko": {
		title:   "개인정보 처리방침",
		updated: "최종 수정일: 2026년 9월",
		sections: []legalSection{
			{"수집하는 정보", "이메일, 이름, 연락처, 생년월일, 성별, 활동 지역과 서비스 이용 기록을 수집합니다. 소셜 로그인 시 해당 서비스의 사용자 식별자를 전달받습니다."},
			{"위치 정보", "위치 정보 이용에 동의한 경우에만 게시물 위치와 주변 동행 찾기에 위치를 사용합니다. 동의는 설정에서 언제든 철회할 수 있습니다."},
			{"이용 목적", "회원 식별, 게시물과 동행 매칭, 채팅, 알림 발송, 서비스 개선에 사용합니다."},
			{"제3자 제공 및 위탁", "이미지와 동영상은 Bunny.net과 ImageKit에, 푸시 알림은 Firebase에 위탁하여 처리합니다. 개인정보를 판매하지 않습니다."},
			{"회원 탈퇴", "앱 설정에서 언제든 탈퇴할 수 있으며, 탈퇴 시 계정과 관련 데이터가 삭제됩니다."},
			{"문의", supportEmail},
		},
	},
	"en": {
		title:   "Privacy Policy",
		updated: "Last updated: September 2026",
		sections: []legalSection{
			{"Information We Collect", "We collect your email, name, phone number, birth date, gender, home area and usage data. With social sign-in we receive that provider's user identifier."},
			{"Location", "Location is used for post places and nearby companions only when you consent. You can withdraw consent in settings at any time."},
			{"How We Use Your Information", "To identify your account, match posts and companions, deliver chat and notifications, and improve " + serviceName + "."},
			{"Processors", "Images and videos are stored with Bunny.net and ImageKit; push notifications are delivered by Firebase. We do not sell your personal information."},
			{"Account Deletion", "You can delete your account from the app settings at any time. Your account and associated data are removed."},
			{"Contact", supportEmail},
		},
	},
}

var termsDocs = map[string]legalDoc{
	"ko": {
		title:   "서비스 이용약관",
		updated: "최종 수정일: 2026년 9월",
		sections: []legalSection{
			{"동의", serviceName + "을 이용하면 본 약관에 동의한 것으로 봅니다."},
			{"게시물", "불법, 음란, 혐오, 사기성 게시물과 연락처를 이용한 외부 거래 유도는 금지되며 사전 통보 없이 삭제될 수 있습니다."},
			{"동행", "동행 만남은 이용자 간의 약속이며, 회사는 만남 과정에서 발생한 문제에 대해 책임지지 않습니다. 안전한 공공장소에서 만나세요."},
			{"신고와 차단", "부적절한 이용자와 게시물은 신고하거나 차단할 수 있습니다."},
			{"이용 제한", "약관을 위반한 계정은 이용이 제한되거나 해지될 수 있습니다."},
			{"문의", supportEmail},
		},
	},
	"en": {
		title:   "Terms of Service",
		updated: "Last updated: September 2026",
		sections: []legalSection{
			{"Acceptance", "By using " + serviceName + ", you agree to these terms."},
			{"Content", "Illegal, sexual, hateful or fraudulent posts and attempts to move deals off the platform with contact details are prohibited and may be removed without notice."},
			{"Companions", "Companion meetups are arrangements between users. Meet in safe public places; we are not responsible for what happens at a meetup."},
			{"Reports and Blocks", "You can report or block users and posts that break these terms."},
			{"Termination", "We may suspend or terminate accounts that violate these terms."},
			{"Contact", supportEmail},
		},
	},
}

type LegalHandler struct{}

func NewLegalHandler() *LegalHandler {
	return &LegalHandler{}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(renderLegal(pickDoc(privacyDocs, reqctx.GetLanguage(c))))
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(renderLegal(pickDoc(termsDocs, reqctx.GetLanguage(c))))
}

func pickDoc(docs map[string]legalDoc, lang string) legalDoc {
	if doc, ok := docs[lang]; ok {
		return doc
	}
	return docs["en"]
}

func renderLegal(doc legalDoc) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
	b.WriteString(doc.title + " - " + serviceName)
	b.WriteString(`</title><meta name="viewport" content="width=device-width, initial-scale=1"><style>`)
	b.WriteString(legalStyle)
	b.WriteString(`</style></head><body><h1>`)
	b.WriteString(doc.title)
	b.WriteString(`</h1><p>`)
	b.WriteString(doc.updated)
	b.WriteString(`</p>`)
	for _, s := range doc.sections {
		b.WriteString(`<h2>` + s.heading + `</h2><p>` + s.body + `</p>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}
