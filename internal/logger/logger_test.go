package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextLoggerWins(t *testing.T) {
	buf := new(bytes.Buffer)
	l := zerolog.New(buf)
	ctx := l.WithContext(context.Background())

	InfoLog(ctx, "exported %d rows", 3)
	assert.Contains(t, buf.String(), "exported 3 rows")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestWithContextCarriesProcessLogger(t *testing.T) {
	saved := log
	t.Cleanup(func() { log = saved })

	buf := new(bytes.Buffer)
	log = zerolog.New(buf)
	ctx := WithContext(context.Background())

	zerolog.Ctx(ctx).Warn().Msg("spill dir missing")
	ErrorLog(context.Background(), "import failed: %v", "boom")
	assert.Contains(t, buf.String(), "spill dir missing")
	assert.Contains(t, buf.String(), "import failed: boom")
}
