package bootstrap

import (
	"log"

	"notia-client/internal/client"
	"notia-client/internal/config"
	"notia-client/internal/notesync"
	"notia-client/internal/pkg/logger"
	"notia-client/internal/session"
	"notia-client/internal/socket"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Container wires the whole client stack: HTTP services, the socket
// connection and the session workspace, all sharing one logger and one
// cookie-jarred HTTP client.
type Container struct {
	Config *config.Config
	Logger logger.ILogger

	AuthService     client.IAuthService
	NotebookService client.INotebookService
	NoteService     client.INoteService
	UserService     client.IUserService

	Conn      *socket.Conn
	Workspace *session.Workspace

	OAuthConfig *oauth2.Config
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	apiClient, err := client.New(cfg.App.APIBaseURL, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize API client: %v", err)
	}

	authService := client.NewAuthService(apiClient)
	notebookService := client.NewNotebookService(apiClient)
	noteService := client.NewNoteService(apiClient)
	userService := client.NewUserService(apiClient)

	conn := socket.NewConn(cfg.App.SocketURL, sysLogger)

	workspace := session.NewWorkspace(session.Deps{
		Config:    cfg,
		Logger:    sysLogger,
		Auth:      authService,
		Notebooks: notebookService,
		Notes:     noteService,
		Users:     userService,
		Conn:      conn,
		Strategy:  notesync.OverwriteStrategy{},
	})

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"openid",
		},
		Endpoint: google.Endpoint,
	}

	return &Container{
		Config:          cfg,
		Logger:          sysLogger,
		AuthService:     authService,
		NotebookService: notebookService,
		NoteService:     noteService,
		UserService:     userService,
		Conn:            conn,
		Workspace:       workspace,
		OAuthConfig:     oauthConfig,
	}
}
