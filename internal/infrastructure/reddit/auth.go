package reddit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RedditScanner/internal/domain"
)

const tokenPath = "api/v1/access_token"

// Credentials for the OAuth password grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	TwoFactor    bool
}

// CodePrompt returns a one-time two-factor code.
type CodePrompt func(ctx context.Context) (string, error)

// TokenGrant is an access token with its absolute expiry.
type TokenGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Authenticator retrieves access tokens with the password grant.
type Authenticator struct {
	httpClient *http.Client
	tokenURL   *url.URL
	userAgent  string
	creds      Credentials
	prompt     CodePrompt
	now        func() time.Time
}

// NewAuthenticator builds an authenticator against the www host (baseURL).
// prompt is only used when creds.TwoFactor is set.
func NewAuthenticator(httpClient *http.Client, baseURL, userAgent string, creds Credentials, prompt CodePrompt) (*Authenticator, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, &domain.AuthError{Message: "parse auth url", Err: err}
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	tokenURL, err := parsed.Parse(tokenPath)
	if err != nil {
		return nil, &domain.AuthError{Message: "resolve token endpoint", Err: err}
	}

	return &Authenticator{
		httpClient: httpClient,
		tokenURL:   tokenURL,
		userAgent:  userAgent,
		creds:      creds,
		prompt:     prompt,
		now:        time.Now,
	}, nil
}

// Token performs the password grant. With two-factor enabled the code is
// appended to the password as "password:code".
func (a *Authenticator) Token(ctx context.Context) (TokenGrant, error) {
	password := a.creds.Password
	if a.creds.TwoFactor {
		if a.prompt == nil {
			return TokenGrant{}, &domain.AuthError{Message: "two-factor code required but no prompt configured"}
		}
		code, err := a.prompt(ctx)
		if err != nil {
			return TokenGrant{}, &domain.AuthError{Message: "read two-factor code", Err: err}
		}
		password = password + ":" + strings.TrimSpace(code)
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", a.creds.Username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return TokenGrant{}, &domain.AuthError{Message: "create token request", Err: err}
	}
	req.SetBasicAuth(a.creds.ClientID, a.creds.ClientSecret)
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return TokenGrant{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenGrant{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return TokenGrant{}, &domain.AuthError{
			StatusCode: resp.StatusCode,
			Message:    "invalid credentials, please check them in the config file",
		}
	}
	if resp.StatusCode != http.StatusOK {
		return TokenGrant{}, fmt.Errorf("token request: %w", statusError(http.MethodPost, a.tokenURL.Path, resp.StatusCode, body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return TokenGrant{}, fmt.Errorf("decode token response: %w", err)
	}
	// a wrong password comes back as 200 {"error": "invalid_grant"}
	if token.Error != "" || token.AccessToken == "" {
		return TokenGrant{}, &domain.AuthError{
			StatusCode: resp.StatusCode,
			Message:    "invalid credentials, please check them in the config file",
			Err:        fmt.Errorf("token endpoint: %q", token.Error),
		}
	}

	grant := TokenGrant{AccessToken: token.AccessToken}
	if token.ExpiresIn > 0 {
		grant.ExpiresAt = a.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return grant, nil
}

// LinePrompt asks for a two-factor code on w and reads one line from r.
func LinePrompt(r io.Reader, w io.Writer) CodePrompt {
	reader := bufio.NewReader(r)
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := fmt.Fprint(w, "Enter your two-factor authentication code: "); err != nil {
			return "", err
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}
