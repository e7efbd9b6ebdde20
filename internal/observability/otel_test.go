package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rogerio-castellano/catalog-gateway/internal/config"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
)

func TestInitOTel_Disabled(t *testing.T) {
	shutdown := InitOTel(context.Background(), logger.Nop(), config.OtelConfig{Enabled: false})
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 0.0, sampleRatio(-1))
	assert.Equal(t, 1.0, sampleRatio(3))
	assert.Equal(t, 0.25, sampleRatio(0.25))
}
