package oauth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

const GitHubAPIURL = "https://api.github.com"

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubFetcher resolves the user and their primary email. The public
// profile email is not trusted since GitHub does not report whether it is
// verified.
func GitHubFetcher(apiURL string) IdentityFetcher {
	return func(ctx context.Context, client *http.Client) (*Identity, error) {
		var user githubUser
		if err := getJSON(ctx, client, apiURL+"/user", &user); err != nil {
			return nil, err
		}
		if user.ID == 0 {
			return nil, errors.New("github user missing id")
		}

		var emails []githubEmail
		if err := getJSON(ctx, client, apiURL+"/user/emails", &emails); err != nil {
			return nil, err
		}

		identity := &Identity{
			AccountID: strconv.FormatInt(user.ID, 10),
			Name:      user.Name,
		}
		if identity.Name == "" {
			identity.Name = user.Login
		}
		for _, e := range emails {
			if e.Primary {
				identity.Email = e.Email
				identity.EmailVerified = e.Verified
				break
			}
		}
		return identity, nil
	}
}
