package utils

import (
	"os"
	"time"

	"github.com/kataras/iris/v12/middleware/jwt"
)

// DashboardToken is the claims payload for the analytics dashboard.
type DashboardToken struct {
	AdminID int64 `json:"adminID"`
}

// CreateDashboardToken mints a 24h HS256 token for the read-only dashboard.
// Admins request one from the bot's admin panel.
func CreateDashboardToken(adminID int64) (string, error) {
	secret := os.Getenv("DASHBOARD_TOKEN_SECRET")
	if secret == "" {
		return "", &ConfigError{Msg: "DASHBOARD_TOKEN_SECRET is not set"}
	}

	signer := jwt.NewSigner(jwt.HS256, secret, 24*time.Hour)
	token, err := signer.Sign(DashboardToken{AdminID: adminID})
	if err != nil {
		return "", err
	}
	return string(token), nil
}
