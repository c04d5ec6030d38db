package oauth

import (
	"context"
	"errors"
	"net/http"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func GoogleFetcher(userInfoURL string) IdentityFetcher {
	return func(ctx context.Context, client *http.Client) (*Identity, error) {
		var info googleUserInfo
		if err := getJSON(ctx, client, userInfoURL, &info); err != nil {
			return nil, err
		}
		if info.ID == "" {
			return nil, errors.New("google userinfo missing id")
		}
		return &Identity{
			AccountID:     info.ID,
			Email:         info.Email,
			EmailVerified: info.VerifiedEmail,
			Name:          info.Name,
		}, nil
	}
}
