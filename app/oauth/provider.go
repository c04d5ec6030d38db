package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/codetrust-ai/codetrust-api/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrExchangeFailed  = errors.New("oauth code exchange failed")
	ErrProfileFailed   = errors.New("oauth profile lookup failed")
)

// Identity is the account data a provider vouches for after sign-in.
type Identity struct {
	Provider      string
	AccountID     string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityFetcher loads the signed-in account using an authorized client.
type IdentityFetcher func(ctx context.Context, client *http.Client) (*Identity, error)

type Provider struct {
	name   string
	config *oauth2.Config
	fetch  IdentityFetcher
}

func NewProvider(name string, cfg *oauth2.Config, fetch IdentityFetcher) *Provider {
	return &Provider{name: name, config: cfg, fetch: fetch}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and resolves the
// account behind it.
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExchangeFailed, err.Error())
	}

	identity, err := p.fetch(ctx, p.config.Client(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileFailed, err.Error())
	}
	identity.Provider = p.name
	return identity, nil
}

type Registry struct {
	providers map[string]*Provider
}

func NewRegistry(providers ...*Provider) *Registry {
	r := &Registry{providers: make(map[string]*Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig registers every provider that has client credentials.
// Callback URLs are built from baseURL.
func NewRegistryFromConfig(cfg config.OAuthConfig, baseURL string) *Registry {
	var providers []*Provider
	if cfg.Google.Enabled() {
		providers = append(providers, NewProvider(ProviderGoogle, &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  callbackURL(baseURL, ProviderGoogle),
			Scopes:       []string{"openid", "email", "profile"},
		}, GoogleFetcher(GoogleUserInfoURL)))
	}
	if cfg.GitHub.Enabled() {
		providers = append(providers, NewProvider(ProviderGitHub, &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			Endpoint:     endpoints.GitHub,
			RedirectURL:  callbackURL(baseURL, ProviderGitHub),
			Scopes:       []string{"read:user", "user:email"},
		}, GitHubFetcher(GitHubAPIURL)))
	}
	return NewRegistry(providers...)
}

func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func callbackURL(baseURL, provider string) string {
	return baseURL + "/api/auth/callback/" + provider
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
