package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitRecordStore_Memory(t *testing.T) {
	logger := log.WithField("test", "storage-init")

	cfg := DefaultConfig()
	store, lister, closer, err := initRecordStore(cfg, logger)
	if err != nil {
		t.Fatalf("memory store init failed: %v", err)
	}
	if store == nil {
		t.Fatal("expected record store")
	}
	if lister == nil {
		t.Error("memory store must support listing")
	}
	if closer != nil {
		t.Error("memory store must not require a closer")
	}
}

func TestInitRecordStore_EmptyDriverDefaultsToMemory(t *testing.T) {
	logger := log.WithField("test", "storage-init")

	cfg := DefaultConfig()
	cfg.StorageDriver = ""
	store, _, _, err := initRecordStore(cfg, logger)
	if err != nil {
		t.Fatalf("empty driver init failed: %v", err)
	}
	if store == nil {
		t.Fatal("expected record store")
	}
}

func TestInitRecordStore_PostgresRequiresDSN(t *testing.T) {
	logger := log.WithField("test", "storage-init")

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = ""

	if _, _, _, err := initRecordStore(cfg, logger); err == nil {
		t.Error("expected error for postgres driver without DSN")
	}
}

func TestInitRecordStore_UnknownDriver(t *testing.T) {
	logger := log.WithField("test", "storage-init")

	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"

	if _, _, _, err := initRecordStore(cfg, logger); err == nil {
		t.Error("expected error for unknown driver")
	}
}
