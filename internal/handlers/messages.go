package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type message struct {
	ko string
	en string
}

// authMessages maps service sentinels to user-facing text. Checked in
// order, so wrapped errors resolve to the first sentinel they match.
var authMessages = []struct {
	err error
	msg message
}{
	{services.ErrEmailTaken, message{"이미 가입된 이메일입니다.", "This email is already registered."}},
	{services.ErrInvalidCredentials, message{"이메일 또는 비밀번호가 올바르지 않습니다.", "Incorrect email or password."}},
	{services.ErrInvalidToken, message{"로그인이 만료되었습니다. 다시 로그인해 주세요.", "Your session has expired. Please sign in again."}},
	{services.ErrUserNotFound, message{"사용자를 찾을 수 없습니다.", "User not found."}},
	{services.ErrInvalidEmail, message{"올바른 이메일 주소를 입력해 주세요.", "Please enter a valid email address."}},
	{services.ErrWeakPassword, message{"비밀번호는 8자 이상이어야 합니다.", "Password must be at least 8 characters."}},
	{services.ErrTermsRequired, message{"이용약관에 동의해 주세요.", "Please accept the terms of service."}},
	{services.ErrPasswordRequired, message{"비밀번호를 입력해 주세요.", "Password is required."}},
	{services.ErrProviderNotConfigured, message{"지원하지 않는 로그인 방식입니다.", "This sign-in method is not available."}},
	{services.ErrSocialConflict, message{"이미 다른 로그인 방식으로 가입된 이메일입니다.", "This email already belongs to another sign-in account."}},
	{services.ErrInvalidSocialToken, message{"소셜 로그인 인증에 실패했습니다.", "Social sign-in could not be verified."}},
	{services.ErrNameRequired, message{"이름을 입력해 주세요.", "Name is required."}},
	{services.ErrInvalidBirthDate, message{"생년월일 형식이 올바르지 않습니다.", "Birth date must be YYYY-MM-DD."}},
	{services.ErrInvalidGender, message{"성별 값이 올바르지 않습니다.", "Gender must be male, female, or other."}},
	{services.ErrUnsupportedLanguage, message{"지원하지 않는 언어입니다.", "This language is not supported."}},
	{services.ErrInvalidDeviceToken, message{"기기 토큰이 필요합니다.", "Device token is required."}},
}

// Localize returns the message for err in the request language. Korean
// requests get Korean, every other language gets English.
func Localize(c *fiber.Ctx, err error) string {
	for _, m := range authMessages {
		if errors.Is(err, m.err) {
			if reqctx.GetLanguage(c) == "ko" {
				return m.msg.ko
			}
			return m.msg.en
		}
	}
	return err.Error()
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func invalidBody(c *fiber.Ctx) error {
	if reqctx.GetLanguage(c) == "ko" {
		return fail(c, fiber.StatusBadRequest, "잘못된 요청입니다.")
	}
	return fail(c, fiber.StatusBadRequest, "Invalid request body")
}
