package database

// Register the storage backends.
import (
	"github.com/safing/rpsldb/database/storage"
	_ "github.com/safing/rpsldb/database/storage/badger"
	_ "github.com/safing/rpsldb/database/storage/bbolt"
	_ "github.com/safing/rpsldb/database/storage/hashmap"
	_ "github.com/safing/rpsldb/database/storage/leveldb"
	"github.com/safing/rpsldb/info"
)

func init() {
	info.SetSchema(SchemaVersion, storage.Types())
}
