package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Game is one entry of the library returned on app login.
type Game struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ImagePath      string    `json:"imagePath"`
	BannerPath     string    `json:"bannerPath"`
	Description    string    `json:"description"`
	Developer      string    `json:"developer"`
	ExpirationDate time.Time `json:"expirationDate"`
}

// Session is the launcher configuration returned by both login forms.
type Session struct {
	AppToken string
	UserName string
	Games    []Game
}

type appLoginResponse struct {
	AppToken string `json:"appToken"`
	Config   struct {
		UserName string `json:"userName"`
		Games    []Game `json:"games"`
	} `json:"config"`
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// HTTPClient is a thin JSON client for the storefront API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ping checks that the server answers its health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

// Login opens a device session with e-mail and password.
func (c *HTTPClient) Login(ctx context.Context, email, password, deviceID, deviceName string) (*Session, error) {
	req := map[string]string{
		"email":      email,
		"password":   password,
		"deviceId":   deviceID,
		"deviceName": deviceName,
	}
	var resp appLoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/app/login", "", req, &resp); err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

// LoginWithToken resumes the session identified by token.
func (c *HTTPClient) LoginWithToken(ctx context.Context, token, deviceID string) (*Session, error) {
	req := map[string]string{"appToken": token, "deviceId": deviceID}
	var resp appLoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/app/login-token", "", req, &resp); err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

// Logout closes the active device session of the account.
func (c *HTTPClient) Logout(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/app/logout", "", map[string]string{"email": email}, nil)
}

// WebLogin returns a website token, which the installer download requires.
func (c *HTTPClient) WebLogin(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	req := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// DownloadURL returns a short-lived signed link to the installer.
func (c *HTTPClient) DownloadURL(ctx context.Context, webToken string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/app/download", webToken, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func toSession(r appLoginResponse) *Session {
	return &Session{AppToken: r.AppToken, UserName: r.Config.UserName, Games: r.Config.Games}
}

func (c *HTTPClient) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
