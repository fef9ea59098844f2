// AngelaMos | 2026
// google.go

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/carterperez-dev/templates/postboard/internal/config"
	"github.com/carterperez-dev/templates/postboard/internal/core"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// IdentityProvider runs the authorization-code flow against an external
// identity provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (ExternalIdentity, error)
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg config.GoogleConfig) *GoogleProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (p *GoogleProvider) Exchange(
	ctx context.Context,
	code string,
) (ExternalIdentity, error) {
	if code == "" {
		return ExternalIdentity{}, core.Invalid("google exchange", "code", "is required")
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("google exchange: %w: %w", core.ErrUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("google userinfo: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return ExternalIdentity{}, fmt.Errorf("google userinfo: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ExternalIdentity{}, fmt.Errorf("google userinfo: decode: %w", err)
	}

	return info.identity()
}

func (i googleUserInfo) identity() (ExternalIdentity, error) {
	if i.Sub == "" {
		return ExternalIdentity{}, fmt.Errorf("google userinfo: missing subject: %w", core.ErrUnauthorized)
	}
	if i.Email == "" || !i.EmailVerified {
		return ExternalIdentity{}, fmt.Errorf("google userinfo: unverified email: %w", core.ErrUnauthorized)
	}

	name := strings.TrimSpace(i.Name)
	if name == "" {
		name, _, _ = strings.Cut(i.Email, "@")
	}

	return ExternalIdentity{
		ExternalID:  i.Sub,
		Email:       i.Email,
		DisplayName: name,
	}, nil
}
