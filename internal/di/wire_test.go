package di

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aitrader/internal/config"
	testingpkg "github.com/aristath/aitrader/internal/testing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:             t.TempDir(),
		DiscordToken:        "test-token",
		Env:                 config.EnvTest,
		Timezone:            "Asia/Seoul",
		LeaderboardSchedule: config.DefaultLeaderboardSchedule,
		Archive:             &config.ArchiveConfig{},
	}
}

func TestInitializeDatabase_AppliesSchema(t *testing.T) {
	container, err := InitializeDatabase(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.NoError(t, InitializeRepositories(container, zerolog.Nop()))

	saved, err := container.TradeRepo.Upsert(context.Background(), testingpkg.NewTradeFixture("u1", "0 0 9 * * *"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
}

func TestInitializeRepositories_RequiresDatabase(t *testing.T) {
	err := InitializeRepositories(&Container{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire(t *testing.T) {
	container, jobs, err := Wire(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.TradeRepo)
	assert.NotNil(t, container.UserRepo)
	assert.NotNil(t, container.UpbitClient)
	assert.NotNil(t, container.Discord)
	assert.NotNil(t, container.Messenger)
	assert.NotNil(t, container.TradingService)
	assert.NotNil(t, container.TradingCron)
	assert.NotNil(t, container.Router)
	assert.NotNil(t, container.Registry)
	assert.Nil(t, container.Archive)
	assert.Nil(t, container.CommunityClient)

	require.NotNil(t, jobs)
	assert.NotNil(t, jobs.WALCheckpoint)
}

func TestWire_CommunityClientWithAppID(t *testing.T) {
	cfg := testConfig(t)
	cfg.DCInsideAppID = "app-123"

	container, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.CommunityClient)
}

func TestWire_TradingCronStartsEmpty(t *testing.T) {
	container, _, err := Wire(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		container.TradingCron.Stop()
		container.Close()
	})

	require.NoError(t, container.TradingCron.Init(context.Background()))
	assert.Empty(t, container.TradingCron.Groups())
}

func TestRegisterJobs_RequiresScheduler(t *testing.T) {
	_, err := RegisterJobs(&Container{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_TradingCronLoadsStoredSchedules(t *testing.T) {
	container, _, err := Wire(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		container.TradingCron.Stop()
		container.Close()
	})

	ctx := context.Background()
	require.NoError(t, container.UserRepo.Upsert(ctx, testingpkg.NewUserFixture("u1", "c1", 1000000)))
	saved, err := container.TradeRepo.Upsert(ctx, testingpkg.NewTradeFixture("u1", "0 0 9,21 * * *"))
	require.NoError(t, err)

	require.NoError(t, container.TradingCron.Init(ctx))

	groups := container.TradingCron.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "0 0 9,21 * * *", groups[0].Expression)
	assert.Equal(t, []string{saved.ID}, groups[0].TradeIDs)
}
