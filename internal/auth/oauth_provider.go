package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/config"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

// OAuthProvider is one upstream identity provider: it builds the consent URL
// and exchanges an authorization code for a profile.
type OAuthProvider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (user.Profile, error)
}

var oauthHTTPClient = &http.Client{Timeout: 10 * time.Second}

type GoogleProvider struct {
	cfg config.OAuthProviderConfig
}

func NewGoogleProvider(cfg config.OAuthProviderConfig) *GoogleProvider {
	return &GoogleProvider{cfg: cfg}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthURL(state string) string {
	q := url.Values{
		"client_id":     {p.cfg.ClientID},
		"redirect_uri":  {p.cfg.CallbackURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?" + q.Encode()
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (user.Profile, error) {
	form := url.Values{
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.CallbackURL},
		"grant_type":    {"authorization_code"},
		"code":          {code},
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := postForm(ctx, "https://oauth2.googleapis.com/token", form, &tokenResp); err != nil {
		return user.Profile{}, ErrOAuthExchangeFailed.WithCause(err)
	}
	if tokenResp.AccessToken == "" {
		return user.Profile{}, ErrOAuthExchangeFailed
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", tokenResp.AccessToken, &info); err != nil {
		return user.Profile{}, ErrOAuthExchangeFailed.WithCause(err)
	}

	return user.Profile{
		Provider:   p.Name(),
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Avatar:     info.Picture,
	}, nil
}

type GitHubProvider struct {
	cfg config.OAuthProviderConfig
}

func NewGitHubProvider(cfg config.OAuthProviderConfig) *GitHubProvider {
	return &GitHubProvider{cfg: cfg}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthURL(state string) string {
	q := url.Values{
		"client_id":    {p.cfg.ClientID},
		"redirect_uri": {p.cfg.CallbackURL},
		"scope":        {"read:user user:email"},
		"state":        {state},
	}
	return "https://github.com/login/oauth/authorize?" + q.Encode()
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (user.Profile, error) {
	form := url.Values{
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.CallbackURL},
		"code":          {code},
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := postForm(ctx, "https://github.com/login/oauth/access_token", form, &tokenResp); err != nil {
		return user.Profile{}, ErrOAuthExchangeFailed.WithCause(err)
	}
	if tokenResp.AccessToken == "" {
		return user.Profile{}, ErrOAuthExchangeFailed
	}

	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, "https://api.github.com/user", tokenResp.AccessToken, &info); err != nil {
		return user.Profile{}, ErrOAuthExchangeFailed.WithCause(err)
	}

	email := info.Email
	if email == "" {
		email = p.primaryEmail(ctx, tokenResp.AccessToken)
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}

	return user.Profile{
		Provider:   p.Name(),
		ProviderID: strconv.FormatInt(info.ID, 10),
		Email:      email,
		Name:       name,
		Avatar:     info.AvatarURL,
	}, nil
}

// primaryEmail is best effort: github hides the profile email when the user
// marks it private, but the emails endpoint still lists the primary one.
func (p *GitHubProvider) primaryEmail(ctx context.Context, accessToken string) string {
	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := getJSON(ctx, "https://api.github.com/user/emails", accessToken, &emails); err != nil {
		return ""
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}

	return ""
}

func postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := oauthHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := oauthHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile endpoint returned %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
