package di

import (
	"fmt"

	"github.com/aristath/aitrader/internal/modules/trades"
	"github.com/aristath/aitrader/internal/modules/users"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories backed by the container's database
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container database is not initialized")
	}

	container.TradeRepo = trades.NewRepository(container.DB.Conn(), log)
	container.UserRepo = users.NewRepository(container.DB.Conn(), log)
	return nil
}
