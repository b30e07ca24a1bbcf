// Command sheetmap exports and imports the employee workbook from the shell.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/locvowork/sheetmapper/internal/bootstrap"
	"github.com/locvowork/sheetmapper/internal/config"
	"github.com/locvowork/sheetmapper/internal/database"
	"github.com/locvowork/sheetmapper/internal/domain"
	"github.com/locvowork/sheetmapper/internal/logger"
	"github.com/locvowork/sheetmapper/internal/repository"
	"github.com/locvowork/sheetmapper/internal/service"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	department string
	activeOnly bool
	headerRow  int
	commit     bool
	pretty     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetmap",
		Short: "Export and import the employee workbook",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvConfig(); err != nil {
				return fmt.Errorf("failed to load env config: %w", err)
			}
			logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH)
			logger.SetLevel(config.DefaultEnvConfig.LOG_LEVEL)
			return nil
		},
		SilenceUsage: true,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the employee table to an xlsx file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "employees.xlsx", "Output file path")
	exportCmd.Flags().StringVar(&department, "department", "", "Only export this department")
	exportCmd.Flags().BoolVar(&activeOnly, "active", false, "Only export active employees")

	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import template",
		Args:  cobra.NoArgs,
		RunE:  runTemplate,
	}
	templateCmd.Flags().StringVarP(&outputPath, "output", "o", "employees_template.xlsx", "Output file path")

	importCmd := &cobra.Command{
		Use:   "import [input.xlsx]",
		Short: "Read employees from an xlsx file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().IntVar(&headerRow, "header-row", -1, "0-based header row (default: the exported layout)")
	importCmd.Flags().BoolVar(&commit, "commit", false, "Insert the rows when every row is valid")
	importCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(exportCmd, templateCmd, importCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newService opens the database only when the command touches it.
func newService(ctx context.Context, needDB bool) (service.EmployeeSheetService, func(), error) {
	cfg, err := bootstrap.SheetConfig()
	if err != nil {
		return nil, nil, err
	}
	var (
		repo domain.EmployeeRepository
		db   *sql.DB
	)
	if needDB {
		db, err = database.NewPostgresDB(ctx, database.Config{
			Host:            config.DefaultEnvConfig.DB_HOST,
			Port:            config.DefaultEnvConfig.DB_PORT,
			User:            config.DefaultEnvConfig.DB_USER,
			Password:        config.DefaultEnvConfig.DB_PASSWORD,
			DBName:          config.DefaultEnvConfig.DB_NAME,
			SSLMode:         config.DefaultEnvConfig.DB_SSL_MODE,
			MaxOpenConns:    config.DefaultEnvConfig.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    config.DefaultEnvConfig.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: config.DefaultEnvConfig.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return nil, nil, err
		}
		repo = repository.NewEmployeeRepository(db)
	}
	svc, err := service.NewEmployeeSheetService(repo, nil, cfg)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	return svc, func() {
		if db != nil {
			db.Close()
		}
	}, nil
}

// writeFile creates path, runs write, and removes the file when write fails.
func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return write(f)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := logger.WithContext(cmd.Context())
	svc, done, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	filter := domain.EmployeeFilter{Department: department, ActiveOnly: activeOnly}
	var rows int
	err = writeFile(outputPath, func(f *os.File) error {
		rows, err = svc.Export(ctx, f, filter)
		return err
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	logger.InfoLog(ctx, "exported %d employees to %s", rows, outputPath)
	return nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	ctx := logger.WithContext(cmd.Context())
	svc, done, err := newService(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	if err := writeFile(outputPath, func(f *os.File) error {
		return svc.ExportTemplate(ctx, f)
	}); err != nil {
		return fmt.Errorf("template export failed: %w", err)
	}
	logger.InfoLog(ctx, "wrote import template to %s", outputPath)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := logger.WithContext(cmd.Context())
	inputPath := args[0]

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer f.Close()

	svc, done, err := newService(ctx, commit)
	if err != nil {
		return err
	}
	defer done()

	row := headerRow
	if row < 0 {
		row = svc.DefaultHeaderRow()
	}
	result, importErr := svc.Import(ctx, f, row, commit)
	if result != nil {
		var out []byte
		if pretty {
			out, err = json.MarshalIndent(result, "", "  ")
		} else {
			out, err = json.Marshal(result)
		}
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	if importErr != nil {
		return importErr
	}
	if result != nil && result.Failed > 0 {
		return errors.New("some rows failed validation; nothing was committed")
	}
	return nil
}
