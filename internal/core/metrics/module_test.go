package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/tests/mocks"
)

func TestModule_DecoratesStore(t *testing.T) {
	raw := mocks.NewMockPeerStore()
	raw.FailUpdate(errors.New("locked"))

	var (
		c     *Collector
		store interfaces.PeerStore
	)
	app := fxtest.New(t,
		fx.Supply(config.NewConfig(), prometheus.NewRegistry()),
		fx.Provide(func() interfaces.PeerStore { return raw }),
		Module,
		DecorateStore(),
		fx.Populate(&c, &store),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, c)
	err := store.UpdatePeer(context.Background(), []byte("guid"), "peer-A", nil, "{}", nil)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageErrors.WithLabelValues(OpUpdate)))
}

func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enable = false

	var c *Collector
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&c),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Nil(t, c)
}
