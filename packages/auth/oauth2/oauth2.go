// Package oauth2 fetches OAuth2 access tokens and attaches them to outgoing
// requests. A Provider is an http.Authenticator, so it can be passed as the
// auth value of a client.
package oauth2

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type GrantType string

const (
	ClientCredentials GrantType = "client_credentials"
	Password          GrantType = "password"
	RefreshToken      GrantType = "refresh_token"
)

// expirySkew is subtracted from a token's lifetime to absorb clock drift.
const expirySkew = 30 * time.Second

type Config struct {
	TokenURL     string    `json:"tokenUrl" yaml:"tokenUrl" validate:"required,url"`
	ClientID     string    `json:"clientId" yaml:"clientId" validate:"required"`
	ClientSecret string    `json:"clientSecret" yaml:"clientSecret"`
	Scopes       []string  `json:"scopes,omitempty" yaml:"scopes"`
	Username     string    `json:"username,omitempty" yaml:"username" validate:"required_if=GrantType password"`
	Password     string    `json:"password,omitempty" yaml:"password" validate:"required_if=GrantType password"`
	GrantType    GrantType `json:"grantType" yaml:"grantType" validate:"omitempty,oneof=client_credentials password"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid oauth2 config: %w", err)
	}
	return nil
}

type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expirySkew).After(t.ExpiresAt)
}

// Provider acquires tokens from a token endpoint and caches them until they
// expire.
type Provider struct {
	config    *Config
	transport http.Transport
	cache     *TokenCache
}

type Option func(*Provider)

// WithTransport sets the transport token requests go through.
func WithTransport(t http.Transport) Option {
	return func(p *Provider) {
		p.transport = t
	}
}

func WithCache(cache *TokenCache) Option {
	return func(p *Provider) {
		p.cache = cache
	}
}

func NewProvider(config *Config, opts ...Option) *Provider {
	p := &Provider{
		config: config,
		cache:  NewTokenCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.transport == nil {
		p.transport = http.NewClient(http.WithTimeout(30 * time.Second))
	}
	return p
}

// Apply sets the Authorization header from a valid token.
func (p *Provider) Apply(req *nethttp.Request) error {
	token, err := p.Token(req.Context())
	if err != nil {
		return err
	}
	tokenType := token.TokenType
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	req.Header.Set("Authorization", tokenType+" "+token.AccessToken)
	return nil
}

// Token returns a cached token, fetching a new one when none is valid. An
// expired token with a refresh token is refreshed first.
func (p *Provider) Token(ctx context.Context) (*Token, error) {
	key := p.cacheKey()
	cached := p.cache.Get(key)
	if cached != nil && !cached.IsExpired() {
		return cached, nil
	}

	var token *Token
	var err error
	if cached != nil && cached.RefreshToken != "" {
		token, err = p.Refresh(ctx, cached.RefreshToken)
	}
	if token == nil {
		token, err = p.fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, token)
	return token, nil
}

// Refresh exchanges a refresh token for a new access token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", string(RefreshToken))
	data.Set("refresh_token", refreshToken)
	return p.request(ctx, data)
}

func (p *Provider) cacheKey() string {
	return fmt.Sprintf("%s:%s:%s", p.config.TokenURL, p.config.ClientID, strings.Join(p.config.Scopes, ","))
}

func (p *Provider) fetch(ctx context.Context) (*Token, error) {
	data := url.Values{}
	switch p.config.GrantType {
	case Password:
		data.Set("grant_type", string(Password))
		data.Set("username", p.config.Username)
		data.Set("password", p.config.Password)
	default:
		data.Set("grant_type", string(ClientCredentials))
	}
	if len(p.config.Scopes) > 0 {
		data.Set("scope", strings.Join(p.config.Scopes, " "))
	}
	return p.request(ctx, data)
}

func (p *Provider) request(ctx context.Context, data url.Values) (*Token, error) {
	opts := &http.Options{
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Data: data,
	}
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		opts.Auth = http.BasicAuth{Username: p.config.ClientID, Password: p.config.ClientSecret}
	}

	resp, err := p.transport.Post(ctx, p.config.TokenURL, opts)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	body, err := resp.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token request failed: %s - %s", errResp.Error, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return &token, nil
}
