package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/storage/badger"
	"github.com/ternarybob/kabuka/internal/storage/jsonfile"
)

// NewEventCache creates the event cache backend selected by storage.type.
func NewEventCache(logger arbor.ILogger, config *common.Config) (interfaces.EventCacheStorage, error) {
	switch config.Storage.Type {
	case "", "json":
		logger.Debug().Str("path", config.Storage.JSON.Path).Msg("Using JSON file event cache")
		return jsonfile.NewEventCache(config.Storage.JSON.Path, logger), nil
	case "badger":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewEventCache(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected 'json' or 'badger')", config.Storage.Type)
	}
}
