package rest

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/common"
	"github.com/dmitrijs2005/cenkeeper/internal/httpapi"
	"github.com/dmitrijs2005/cenkeeper/internal/logging"
	"github.com/dmitrijs2005/cenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
	"github.com/dmitrijs2005/cenkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type nopLogger struct{}

func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

type fakeDeviceService struct {
	registerErr error

	salt    []byte
	saltErr error

	loginPair *services.TokenPair
	loginErr  error

	refreshPair *services.TokenPair
	refreshErr  error
}

func (f *fakeDeviceService) Register(ctx context.Context, name string, salt, verifier []byte) (*models.Device, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.Device{ID: "d-1", Name: name}, nil
}
func (f *fakeDeviceService) GetSalt(ctx context.Context, name string) ([]byte, error) {
	return f.salt, f.saltErr
}
func (f *fakeDeviceService) Login(ctx context.Context, name string, verifier []byte) (*services.TokenPair, error) {
	return f.loginPair, f.loginErr
}
func (f *fakeDeviceService) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return f.refreshPair, f.refreshErr
}

type fakeDisclosureService struct {
	submitDeviceID string
	submitReport   *models.Report
	submitKeys     [][]byte
	submitPutURL   string
	submitErr      error

	listKeys       []models.DisclosedKey
	listCheckpoint uint64
	listErr        error

	report        *models.Report
	attachmentURL string
	reportErr     error
}

func (f *fakeDisclosureService) SubmitReport(ctx context.Context, deviceID string, report *models.Report, keyValues [][]byte, withAttachment bool) (string, error) {
	f.submitDeviceID = deviceID
	f.submitReport = report
	f.submitKeys = keyValues
	return f.submitPutURL, f.submitErr
}
func (f *fakeDisclosureService) ListKeysSince(ctx context.Context, since uint64) ([]models.DisclosedKey, uint64, error) {
	return f.listKeys, f.listCheckpoint, f.listErr
}
func (f *fakeDisclosureService) GetReportByKey(ctx context.Context, value []byte) (*models.Report, string, error) {
	return f.report, f.attachmentURL, f.reportErr
}

func newTestServer(ds *fakeDeviceService, cs *fakeDisclosureService) *httptest.Server {
	s := NewServer(":0", nopLogger{}, ds, cs, testSecret)
	return httptest.NewServer(s.Router())
}

func postJSON(t *testing.T, url string, body any, token string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestPing(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/devices/register", httpapi.RegisterRequest{Name: "x"}, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_Success(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/devices/register",
		httpapi.RegisterRequest{Name: "device-01", Salt: []byte("s"), Verifier: []byte("v")}, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSalt(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{salt: []byte("pepper")}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/devices/salt", httpapi.SaltRequest{Name: "device-01"}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sr httpapi.SaltResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.Equal(t, []byte("pepper"), sr.Salt)
}

func TestLogin_Unauthorized(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{loginErr: common.ErrorUnauthorized}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/devices/login",
		httpapi.LoginRequest{Name: "device-01", Verifier: []byte("v")}, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_Success(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{
		loginPair: &services.TokenPair{AccessToken: "a", RefreshToken: "r"},
	}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/devices/login",
		httpapi.LoginRequest{Name: "device-01", Verifier: []byte("v")}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tr httpapi.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	assert.Equal(t, "a", tr.AccessToken)
	assert.Equal(t, "r", tr.RefreshToken)
}

func TestRefresh_Expired(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{refreshErr: common.ErrRefreshTokenExpired}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/devices/refresh", httpapi.RefreshRequest{RefreshToken: "old"}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var er httpapi.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Equal(t, common.ErrRefreshTokenExpired.Error(), er.Error)
}

func TestListKeys(t *testing.T) {
	cs := &fakeDisclosureService{
		listKeys: []models.DisclosedKey{
			{Seq: 5, Value: []byte{0xab, 0xcd}},
		},
		listCheckpoint: 5,
	}
	ts := newTestServer(&fakeDeviceService{}, cs)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/keys?since=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var kl httpapi.KeyListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&kl))
	require.Len(t, kl.Keys, 1)
	assert.Equal(t, uint64(5), kl.Keys[0].Seq)
	assert.Equal(t, "abcd", kl.Keys[0].Value)
	assert.Equal(t, uint64(5), kl.Checkpoint)
}

func TestListKeys_BadSince(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/keys?since=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetReport_NotFound(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{reportErr: common.ErrorNotFound})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/reports/abcd")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetReport_Success(t *testing.T) {
	authored := time.Unix(1700000000, 0)
	cs := &fakeDisclosureService{
		report: &models.Report{
			ID:         "r-1",
			Symptoms:   []string{"fever"},
			AuthoredAt: authored,
		},
		attachmentURL: "https://s3/get",
	}
	ts := newTestServer(&fakeDeviceService{}, cs)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/reports/abcd")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rr httpapi.ReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rr))
	assert.Equal(t, "r-1", rr.Report.ID)
	assert.Equal(t, authored.Unix(), rr.Report.AuthoredAt)
	assert.Equal(t, "https://s3/get", rr.AttachmentURL)
}

func TestSubmitReport_RequiresAuth(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/reports", httpapi.SubmitReportRequest{}, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitReport_ExpiredTokenReportsSentinel(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	token, err := auth.GenerateToken("d-1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+"/api/reports", httpapi.SubmitReportRequest{}, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var er httpapi.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Equal(t, common.ErrTokenExpired.Error(), er.Error)
}

func TestSubmitReport_Success(t *testing.T) {
	cs := &fakeDisclosureService{submitPutURL: "https://s3/put"}
	ts := newTestServer(&fakeDeviceService{}, cs)
	defer ts.Close()

	token, err := auth.GenerateToken("d-1", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	req := httpapi.SubmitReportRequest{
		Report: httpapi.SymptomReport{
			ID:         "r-1",
			Symptoms:   []string{"fever"},
			AuthoredAt: time.Now().Unix(),
		},
		Keys:           []string{hex.EncodeToString([]byte{0x01, 0x02})},
		WithAttachment: true,
	}

	resp := postJSON(t, ts.URL+"/api/reports", req, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sr httpapi.SubmitReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.Equal(t, "https://s3/put", sr.AttachmentPutURL)

	assert.Equal(t, "d-1", cs.submitDeviceID)
	require.NotNil(t, cs.submitReport)
	assert.Equal(t, "r-1", cs.submitReport.ID)
	require.Len(t, cs.submitKeys, 1)
	assert.Equal(t, []byte{0x01, 0x02}, cs.submitKeys[0])
}

func TestSubmitReport_BadKeyEncoding(t *testing.T) {
	ts := newTestServer(&fakeDeviceService{}, &fakeDisclosureService{})
	defer ts.Close()

	token, err := auth.GenerateToken("d-1", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	req := httpapi.SubmitReportRequest{
		Report: httpapi.SymptomReport{ID: "r-1"},
		Keys:   []string{"zz-not-hex"},
	}

	resp := postJSON(t, ts.URL+"/api/reports", req, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
