package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/locvowork/sheetmapper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetConfigLoadsTemplate(t *testing.T) {
	saved := config.DefaultEnvConfig
	t.Cleanup(func() { config.DefaultEnvConfig = saved })

	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sheets:
  - name: Staff
    columns:
      - field_name: Email
        width: 40
`), 0o644))
	config.DefaultEnvConfig.SCHEMA_TEMPLATE_PATH = path
	config.DefaultEnvConfig.EXPORT_WINDOW_SIZE = 100

	cfg, err := SheetConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.WindowSize)
	require.NotNil(t, cfg.Template)
	assert.Equal(t, "Staff", cfg.Template.Name)
}

func TestSheetConfigMissingTemplate(t *testing.T) {
	saved := config.DefaultEnvConfig
	t.Cleanup(func() { config.DefaultEnvConfig = saved })

	config.DefaultEnvConfig.SCHEMA_TEMPLATE_PATH = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := SheetConfig()
	assert.Error(t, err)
}
