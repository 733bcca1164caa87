package bot

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yonathanth/betbot-sub000/utils"
)

const defaultMaxDescription = 2000

func validateName(text string) (string, error) {
	name := strings.TrimSpace(text)
	if utf8.RuneCountInString(name) < 2 {
		return "", utils.NewValidationError(textNameTooShort)
	}
	return name, nil
}

func validatePhone(text string) (string, error) {
	if !utils.ValidatePhoneNumber(text) {
		return "", utils.NewValidationError(textBadPhone)
	}
	return utils.NormalizePhoneNumber(text), nil
}

func validateLocation(text string) (string, error) {
	location := strings.TrimSpace(text)
	if utf8.RuneCountInString(location) < 3 {
		return "", utils.NewValidationError(textBadLocation)
	}
	return location, nil
}

func validatePrice(text string) (string, error) {
	price := strings.TrimSpace(text)
	if price == "" {
		return "", utils.NewValidationError(textBadPrice)
	}
	return price, nil
}

func validateDescription(text string, max int) (string, error) {
	if max <= 0 {
		max = defaultMaxDescription
	}
	desc := strings.TrimSpace(text)
	n := utf8.RuneCountInString(desc)
	if n < 20 {
		return "", utils.NewValidationError(textDescTooShort)
	}
	if n > max {
		return "", utils.NewValidationError(textDescTooLong)
	}
	return desc, nil
}

// validateCount parses a numeric attribute bounded to 1-50.
func validateCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > 50 {
		return 0, utils.NewValidationError(textBadCount)
	}
	return n, nil
}

func validateReason(text string) (string, error) {
	reason := strings.TrimSpace(text)
	if utf8.RuneCountInString(reason) < 3 {
		return "", utils.NewValidationError(textReasonTooShort)
	}
	return reason, nil
}

// validateURL accepts the text as-is if it parses as an absolute URL;
// otherwise it retries with an http:// prefix before giving up.
func validateURL(text string) (string, error) {
	raw := strings.TrimSpace(text)
	if u, err := url.ParseRequestURI(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return raw, nil
	}
	prefixed := "http://" + raw
	if u, err := url.ParseRequestURI(prefixed); err == nil && u.Host != "" && strings.Contains(u.Host, ".") {
		return prefixed, nil
	}
	return "", utils.NewValidationError(textBadLink)
}
