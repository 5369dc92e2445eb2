package services

import (
	"fmt"
	"log"

	"rrg-backend/config"
)

// MemoryStoreFile backs the in-memory store in local development
const MemoryStoreFile = "data/market.json"

// NewStoreFromConfig builds the configured store backend. The Supabase REST
// backend is the default; STORE_BACKEND=postgres selects a direct database
// connection, STORE_BACKEND=memory a file-backed in-memory store.
func NewStoreFromConfig(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := config.InitDB()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return NewPostgresStore(db)

	case "memory":
		return NewMemoryStore(MemoryStoreFile), nil

	default:
		if cfg.SupabaseURL == "" {
			log.Println("SUPABASE_URL not set, falling back to in-memory store")
			return NewMemoryStore(MemoryStoreFile), nil
		}
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey)
	}
}
