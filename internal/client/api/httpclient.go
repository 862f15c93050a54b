package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/httpapi"
	"github.com/dmitrijs2005/cenkeeper/internal/netx"
	"github.com/sethvargo/go-retry"
)

const requestTimeout = 15 * time.Second

// fetchBackoff returns the retry policy for idempotent feed/report fetches.
var fetchBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
}

// HTTPClient talks JSON over HTTP to the disclosure server. Access tokens
// are attached to authenticated calls and refreshed transparently when the
// server reports expiry.
type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: requestTimeout},
	}
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// errAccessExpired marks a 401 caused by an expired access token on an
// authenticated call that holds a refresh token. Never escapes doJSON.
var errAccessExpired = errors.New("access token expired")

// doJSON issues the request once; when the access token turns out to be
// expired it refreshes and re-issues exactly once. A second expiry means the
// freshly minted token is already rejected, so the caller has to log in again.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	err := c.send(ctx, method, path, in, out, authed)
	if !errors.Is(err, errAccessExpired) {
		return err
	}

	if err := c.refreshTokens(ctx); err != nil {
		return err
	}

	err = c.send(ctx, method, path, in, out, authed)
	if errors.Is(err, errAccessExpired) {
		return ErrUnauthorized
	}
	return err
}

func (c *HTTPClient) send(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
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
	if authed {
		access, _ := c.tokens()
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	var errResp httpapi.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, refresh := c.tokens()
		if authed && refresh != "" && errResp.Error == common.ErrTokenExpired.Error() {
			return errAccessExpired
		}
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		return fmt.Errorf("server error: %s (%s)", resp.Status, errResp.Error)
	}
}

func (c *HTTPClient) refreshTokens(ctx context.Context) error {
	_, refresh := c.tokens()

	var tr httpapi.TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/devices/refresh",
		httpapi.RefreshRequest{RefreshToken: refresh}, &tr, false)
	if err != nil {
		return err
	}
	c.setTokens(tr.AccessToken, tr.RefreshToken)
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/ping", nil, nil, false)
}

func (c *HTTPClient) Register(ctx context.Context, name string, salt, verifier []byte) error {
	return c.doJSON(ctx, http.MethodPost, "/api/devices/register",
		httpapi.RegisterRequest{Name: name, Salt: salt, Verifier: verifier}, nil, false)
}

func (c *HTTPClient) GetSalt(ctx context.Context, name string) ([]byte, error) {
	var sr httpapi.SaltResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/devices/salt",
		httpapi.SaltRequest{Name: name}, &sr, false)
	if err != nil {
		return nil, err
	}
	return sr.Salt, nil
}

func (c *HTTPClient) Login(ctx context.Context, name string, verifier []byte) error {
	var tr httpapi.TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/devices/login",
		httpapi.LoginRequest{Name: name, Verifier: verifier}, &tr, false)
	if err != nil {
		return err
	}
	c.setTokens(tr.AccessToken, tr.RefreshToken)
	return nil
}

// FetchKeysSince retrieves the disclosure feed after the given checkpoint.
// Transient server failures are retried with a bounded backoff; entries that
// fail hex decoding are dropped.
func (c *HTTPClient) FetchKeysSince(ctx context.Context, checkpoint uint64) ([]models.DisclosedKey, uint64, error) {
	var kl httpapi.KeyListResponse

	err := retry.Do(ctx, fetchBackoff(), func(ctx context.Context) error {
		kl = httpapi.KeyListResponse{}
		err := c.doJSON(ctx, http.MethodGet,
			fmt.Sprintf("/api/keys?since=%d", checkpoint), nil, &kl, false)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	keys := make([]models.DisclosedKey, 0, len(kl.Keys))
	for _, k := range kl.Keys {
		value, err := hex.DecodeString(k.Value)
		if err != nil {
			continue
		}
		keys = append(keys, models.DisclosedKey{Value: value, Seq: k.Seq})
	}
	return keys, kl.Checkpoint, nil
}

func (c *HTTPClient) FetchReport(ctx context.Context, keyValue []byte) (*models.ReceivedReport, error) {
	var rr httpapi.ReportResponse

	err := retry.Do(ctx, fetchBackoff(), func(ctx context.Context) error {
		rr = httpapi.ReportResponse{}
		err := c.doJSON(ctx, http.MethodGet,
			"/api/reports/"+hex.EncodeToString(keyValue), nil, &rr, false)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.ReceivedReport{
		KeyValue: keyValue,
		Report: models.SymptomReport{
			ID:         rr.Report.ID,
			Symptoms:   rr.Report.Symptoms,
			AuthoredAt: time.Unix(rr.Report.AuthoredAt, 0),
		},
		AttachmentURL: rr.AttachmentURL,
	}, nil
}

func (c *HTTPClient) SubmitReport(ctx context.Context, report models.SymptomReport, keys []models.OwnKey) error {
	req := httpapi.SubmitReportRequest{
		Report: httpapi.SymptomReport{
			ID:         report.ID,
			Symptoms:   report.Symptoms,
			AuthoredAt: report.AuthoredAt.Unix(),
		},
		Keys:           make([]string, 0, len(keys)),
		WithAttachment: len(report.Attachment) > 0,
	}
	for _, k := range keys {
		req.Keys = append(req.Keys, hex.EncodeToString(k.Secret))
	}

	var resp httpapi.SubmitReportResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/reports", req, &resp, true); err != nil {
		return err
	}

	if resp.AttachmentPutURL != "" && len(report.Attachment) > 0 {
		if err := netx.UploadToS3PresignedURL(resp.AttachmentPutURL, report.Attachment); err != nil {
			return fmt.Errorf("attachment upload: %w", err)
		}
	}
	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
