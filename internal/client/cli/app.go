package cli

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/api"
	"github.com/dmitrijs2005/cenkeeper/internal/client/config"
	"github.com/dmitrijs2005/cenkeeper/internal/client/services"
	"github.com/dmitrijs2005/cenkeeper/internal/client/storage"
	"github.com/dmitrijs2005/cenkeeper/internal/filex"
	"github.com/dmitrijs2005/cenkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App wires the device console together: the local store, the server
// client, and the services driving the exposure-check and report-submission
// workflows.
type App struct {
	config          *config.Config
	logger          logging.Logger
	repos           *storage.Repositories
	authService     services.AuthService
	keyService      *services.KeyService
	exposureService *services.ExposureService
	reportService   *services.ReportService
	deviceName      string
	dataDir         string
	Mode            Mode
	reader          *bufio.Reader
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {

	ctx := context.Background()

	dataDir, err := filex.EnsureSubDir("data")
	if err != nil {
		return nil, err
	}

	repos, err := storage.InitDatabase(ctx, filepath.Join(dataDir, c.DatabasePath))
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err.Error())
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerEndpointAddr)

	return &App{
		config:          c,
		logger:          logger,
		repos:           repos,
		authService:     services.NewAuthService(apiClient),
		keyService:      services.NewKeyService(repos.OwnKeys, c.KeyRotationInterval, logger),
		exposureService: services.NewExposureService(apiClient, repos.Observations, c.MatchLookback, logger),
		reportService:   services.NewReportService(apiClient, repos.OwnKeys, c.OwnKeyCount, logger),
		dataDir:         dataDir,
		reader:          bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "connectivity mode changed", "mode", string(mode))
	}
}

func (a *App) isLoggedIn() bool {
	return a.deviceName != ""
}

// Run starts the submission pipeline and its state printer, then hands
// control to the interactive console until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)
	defer a.repos.DB.Close()

	go a.reportService.Run(ctx)
	go a.printSendStates(ctx)

	a.Root(ctx)
}

// printSendStates mirrors submission lifecycle transitions to the console so
// the user sees what happened to a queued report.
func (a *App) printSendStates(ctx context.Context) {
	states, cancel := a.reportService.States().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			switch {
			case st.Err != nil:
				printlnFn("[report] "+st.Kind.String()+":", st.Err.Error())
			default:
				printlnFn("[report] " + st.Kind.String())
			}
		}
	}
}

// StartOnlineStatusWatcher periodically pings the server and flips the
// connectivity mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.authService.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode != ModeOffline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
