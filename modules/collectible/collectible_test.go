package collectible

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/internal/config"
	collectibleconfig "github.com/gaze-network/collectible-ledger/modules/collectible/config"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gaze-network/collectible-ledger/pkg/eventbus"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin = "0x000000000000000000000000000000000000AD01"

func newInjector(t *testing.T, conf config.Config) do.Injector {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, context.Background())
	do.ProvideValue(injector, fiber.New())
	if conf.Events.Enabled {
		bus := eventbus.New(conf.Events)
		t.Cleanup(func() { _ = bus.Close() })
		do.ProvideValue(injector, bus)
	}
	return injector
}

func testConfig() config.Config {
	conf := config.Config{
		Collectible: collectibleconfig.Default(),
	}
	conf.Collectible.Administrator = admin
	conf.Collectible.CID = "bafytest"
	return conf
}

func TestNew(t *testing.T) {
	injector := newInjector(t, testConfig())

	module, err := New(injector)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, module.Shutdown(context.Background())) })

	deployment, err := module.Ledger.Deployment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EtherPapes", deployment.Name)
	assert.Equal(t, entity.Address("0x000000000000000000000000000000000000ad01"), deployment.Administrator)

	app := do.MustInvoke[*fiber.App](injector)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collectible/v1/info", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewPublishesEvents(t *testing.T) {
	conf := testConfig()
	conf.Events = eventbus.Config{Enabled: true, Topic: eventbus.DefaultTopic}
	injector := newInjector(t, conf)

	received := make(chan []byte, 1)
	bus := do.MustInvoke[*eventbus.Bus](injector)
	require.NoError(t, bus.Subscribe(context.Background(), conf.Events.Topic, func(_ context.Context, msg *message.Message) error {
		received <- msg.Payload
		return nil
	}))

	module, err := New(injector)
	require.NoError(t, err)

	price, err := ledger.Price(1)
	require.NoError(t, err)
	_, err = module.Ledger.Claim(context.Background(), entity.Address("0x00000000000000000000000000000000000000b1"), price)
	require.NoError(t, err)

	select {
	case payload := <-received:
		assert.Contains(t, string(payload), `"kind":"transfer"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no event published")
	}
}

func TestNewRejects(t *testing.T) {
	testcases := []struct {
		name        string
		mutate      func(conf *config.Config)
		expectedErr error
	}{
		{
			name:        "unsupported datastore",
			mutate:      func(conf *config.Config) { conf.Collectible.Datastore = "leveldb" },
			expectedErr: errs.Unsupported,
		},
		{
			name:        "missing administrator",
			mutate:      func(conf *config.Config) { conf.Collectible.Administrator = "" },
			expectedErr: errs.InvalidArgument,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			conf := testConfig()
			tc.mutate(&conf)
			_, err := New(newInjector(t, conf))
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
