// Package rest exposes the server's HTTP API: device registration and
// login, the disclosure key feed, report retrieval, and authenticated
// report submission.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/logging"
	"github.com/dmitrijs2005/cenkeeper/internal/server/models"
	"github.com/dmitrijs2005/cenkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

// DeviceService is the authentication surface the handlers depend on.
type DeviceService interface {
	Register(ctx context.Context, name string, salt, verifier []byte) (*models.Device, error)
	GetSalt(ctx context.Context, name string) ([]byte, error)
	Login(ctx context.Context, name string, verifier []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// DisclosureService is the disclosure surface the handlers depend on.
type DisclosureService interface {
	SubmitReport(ctx context.Context, deviceID string, report *models.Report, keyValues [][]byte, withAttachment bool) (string, error)
	ListKeysSince(ctx context.Context, since uint64) ([]models.DisclosedKey, uint64, error)
	GetReportByKey(ctx context.Context, value []byte) (*models.Report, string, error)
}

type Server struct {
	addr              string
	logger            logging.Logger
	deviceService     DeviceService
	disclosureService DisclosureService
	jwtSecret         []byte
}

func NewServer(addr string, logger logging.Logger, ds DeviceService, cs DisclosureService, jwtSecret string) *Server {
	return &Server{
		addr:              addr,
		logger:            logger.With("module", "rest"),
		deviceService:     ds,
		disclosureService: cs,
		jwtSecret:         []byte(jwtSecret),
	}
}

// Router builds the HTTP route table. Split out from Run so tests can drive
// the full mux through httptest.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/ping", s.handlePing).Methods(http.MethodGet)

	r.HandleFunc("/api/devices/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/devices/salt", s.handleSalt).Methods(http.MethodPost)
	r.HandleFunc("/api/devices/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/devices/refresh", s.handleRefresh).Methods(http.MethodPost)

	r.HandleFunc("/api/keys", s.handleListKeys).Methods(http.MethodGet)
	r.HandleFunc("/api/reports/{key}", s.handleGetReport).Methods(http.MethodGet)

	r.Handle("/api/reports", s.requireAuth(http.HandlerFunc(s.handleSubmitReport))).Methods(http.MethodPost)

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
