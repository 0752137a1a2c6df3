package companions

import (
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
)

const (
	kindReceived = "companion_received"
	kindAccepted = "companion_accepted"
)

var notificationText = map[string]map[string][2]string{
	kindReceived: {
		"ko": {"새 동행 요청", "새로운 동행 요청이 도착했어요."},
		"en": {"New companion request", "Someone wants to travel with you."},
	},
	kindAccepted: {
		"ko": {"동행 요청 수락", "보낸 동행 요청이 수락되었어요."},
		"en": {"Request accepted", "Your companion request was accepted."},
	},
}

func notification(lang, kind string, cr *CompanionRequest) services.Notification {
	texts := notificationText[kind]
	text, ok := texts[lang]
	if !ok {
		text = texts["en"]
	}
	return services.Notification{
		Title: text[0],
		Body:  text[1],
		Data: map[string]string{
			"type":       kind,
			"request_id": cr.ID.String(),
		},
	}
}
