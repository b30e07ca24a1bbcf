package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/sheetmapper/internal/config"
	"github.com/locvowork/sheetmapper/internal/database"
	"github.com/locvowork/sheetmapper/internal/domain"
	"github.com/locvowork/sheetmapper/internal/handler"
	"github.com/locvowork/sheetmapper/internal/logger"
	"github.com/locvowork/sheetmapper/internal/repository"
	"github.com/locvowork/sheetmapper/internal/service"
	"github.com/locvowork/sheetmapper/pkg/googlecloud"
	"github.com/locvowork/sheetmapper/pkg/sheetmap"
)

type App struct {
	Echo *echo.Echo
	DB   *sql.DB
	GCP  *googlecloud.Client
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

// SheetConfig builds the sheet service settings from the environment,
// loading the schema template when one is configured.
func SheetConfig() (service.SheetConfig, error) {
	cfg := service.SheetConfig{
		WindowSize:    config.DefaultEnvConfig.EXPORT_WINDOW_SIZE,
		SpillDir:      config.DefaultEnvConfig.EXPORT_SPILL_DIR,
		ImportWorkers: config.DefaultEnvConfig.IMPORT_WORKERS,
	}
	if path := config.DefaultEnvConfig.SCHEMA_TEMPLATE_PATH; path != "" {
		rt, err := sheetmap.LoadTemplate(path)
		if err != nil {
			return cfg, err
		}
		// A template may rename the sheet, so fall back to its first entry.
		cfg.Template = rt.Sheet(domain.EmployeeSheet)
		if cfg.Template == nil {
			if len(rt.Sheets) == 0 {
				return cfg, fmt.Errorf("template %s defines no sheet", path)
			}
			cfg.Template = &rt.Sheets[0]
		}
	}
	return cfg, nil
}

func (a *App) Initialize(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH)
	logger.SetLevel(config.DefaultEnvConfig.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	dbConfig := database.Config{
		Host:            config.DefaultEnvConfig.DB_HOST,
		Port:            config.DefaultEnvConfig.DB_PORT,
		User:            config.DefaultEnvConfig.DB_USER,
		Password:        config.DefaultEnvConfig.DB_PASSWORD,
		DBName:          config.DefaultEnvConfig.DB_NAME,
		SSLMode:         config.DefaultEnvConfig.DB_SSL_MODE,
		MaxOpenConns:    config.DefaultEnvConfig.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    config.DefaultEnvConfig.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: config.DefaultEnvConfig.DB_CONN_MAX_LIFETIME,
	}
	db, err := database.NewPostgresDB(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	// The job log is optional: without a project the service runs unaudited.
	var jobs service.JobStore
	if projectID := config.DefaultEnvConfig.GCP_PROJECT_ID; projectID != "" {
		gcpClient, err := googlecloud.NewClient(logger.WithContext(ctx), projectID)
		if err != nil {
			logger.ErrorLog(ctx, "failed to initialize GCP client: %v", err)
		} else {
			a.GCP = gcpClient
			jobs = gcpClient
		}
	}

	sheetCfg, err := SheetConfig()
	if err != nil {
		return fmt.Errorf("failed to load schema template: %w", err)
	}
	empRepo := repository.NewEmployeeRepository(db)
	sheetSvc, err := service.NewEmployeeSheetService(empRepo, jobs, sheetCfg)
	if err != nil {
		return err
	}
	empHandler := handler.NewEmployeeHandler(sheetSvc, config.DefaultEnvConfig.IMPORT_MAX_UPLOAD_MB)

	var jobHandler *handler.JobHandler
	if a.GCP != nil {
		jobHandler = handler.NewJobHandler(a.GCP)
	}

	a.RegisterMiddlewares()
	a.RegisterRoutes(empHandler, jobHandler)
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(empHandler *handler.EmployeeHandler, jobHandler *handler.JobHandler) {
	empGroup := a.Echo.Group("/employees")
	empGroup.GET("/export", empHandler.ExportHandler)
	empGroup.GET("/template", empHandler.TemplateHandler)
	empGroup.POST("/import", empHandler.ImportHandler)

	if jobHandler != nil {
		jobGroup := a.Echo.Group("/jobs")
		jobGroup.GET("", jobHandler.ListJobsHandler)
		jobGroup.GET("/:id", jobHandler.GetJobHandler)
	}
}

func (a *App) Run() error {
	defer a.DB.Close()
	if a.GCP != nil {
		defer a.GCP.Close()
	}
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}
