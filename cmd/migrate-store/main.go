// Command migrate-store copies poll documents between storage backends,
// e.g. when moving a deployment from the file backend to Postgres.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/chatpolls/internal/adapter/filestore"
	"github.com/pscheid92/chatpolls/internal/adapter/postgres"
	"github.com/pscheid92/chatpolls/internal/adapter/redis"
	"github.com/pscheid92/chatpolls/internal/codec"
	"github.com/pscheid92/chatpolls/internal/domain"
	"github.com/pscheid92/chatpolls/internal/platform/config"
	"github.com/pscheid92/chatpolls/internal/platform/logging"
	"github.com/pscheid92/chatpolls/internal/platform/retry"
)

type endpoint struct {
	backend  string
	dataDir  string
	redisURL string
	dbURL    string
}

type summary struct {
	scanned int
	copied  int
	skipped int
}

func main() {
	var (
		from     = flag.String("from", config.BackendFile, "Source backend: file, redis or postgres")
		to       = flag.String("to", config.BackendPostgres, "Destination backend: file, redis or postgres")
		dataDir  = flag.String("data-dir", envOr("DATA_DIR", "data/polls"), "Data directory for the file backend")
		redisURL = flag.String("redis", os.Getenv("REDIS_URL"), "Redis URL (or set REDIS_URL env)")
		dbURL    = flag.String("database", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		dryRun   = flag.Bool("dry-run", false, "Dry run mode (don't write to the destination)")
		verbose  = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *from == *to {
		log.Fatal("--from and --to must differ")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(os.Stdout, level, "text"))

	ctx := context.Background()
	src, closeSrc, err := open(ctx, endpoint{backend: *from, dataDir: *dataDir, redisURL: *redisURL, dbURL: *dbURL})
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}
	defer closeSrc()

	dst, closeDst, err := open(ctx, endpoint{backend: *to, dataDir: *dataDir, redisURL: *redisURL, dbURL: *dbURL})
	if err != nil {
		log.Fatalf("Failed to open destination: %v", err)
	}
	defer closeDst()

	c := codec.New(clockwork.NewRealClock(), retry.Policy{MaxAttempts: 1})
	if _, err := copyDocuments(ctx, src, dst, c, *dryRun); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	slog.Info("Migration complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func open(ctx context.Context, e endpoint) (domain.DocumentStore, func(), error) {
	switch e.backend {
	case config.BackendFile:
		store, err := filestore.New(e.dataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.BackendRedis:
		if e.redisURL == "" {
			return nil, nil, errors.New("redis URL required (--redis or REDIS_URL env)")
		}
		client, err := redis.NewClient(ctx, e.redisURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Connected to Redis", "url", sanitizeURL(e.redisURL))
		return redis.NewDocumentStore(client), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		if e.dbURL == "" {
			return nil, nil, errors.New("database URL required (--database or DATABASE_URL env)")
		}
		pool, err := postgres.Connect(ctx, e.dbURL, nil)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewDocumentStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", e.backend)
	}
}

// copyDocuments copies every owner's document that still decodes. Documents
// are copied verbatim so the destination matches the source byte for byte.
func copyDocuments(ctx context.Context, src, dst domain.DocumentStore, c *codec.Codec, dryRun bool) (summary, error) {
	start := time.Now()
	var s summary

	slog.Info("Starting migration", "dry_run", dryRun)

	owners, err := src.Owners(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to list owners: %w", err)
	}

	for _, owner := range owners {
		s.scanned++

		doc, err := src.Load(ctx, owner)
		if err != nil {
			slog.Warn("Skipping unreadable owner", "owner_id", owner, "error", err)
			s.skipped++
			continue
		}

		if _, err := c.Decode(doc); err != nil {
			slog.Warn("Skipping corrupt owner document", "owner_id", owner, "error", err)
			s.skipped++
			continue
		}

		if !dryRun {
			if err := dst.Save(ctx, owner, doc); err != nil {
				return s, fmt.Errorf("failed to write owner %s: %w", owner, err)
			}
		}

		slog.Debug("Copied owner", "owner_id", owner, "bytes", len(doc))
		s.copied++
	}

	slog.Info("Migration summary",
		"scanned", s.scanned,
		"copied", s.copied,
		"skipped", s.skipped,
		"duration_ms", time.Since(start).Milliseconds())

	return s, nil
}

func sanitizeURL(url string) string {
	// Hide password in Redis URL for logging
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) == 2 {
			credParts := strings.Split(parts[0], ":")
			if len(credParts) >= 2 {
				return credParts[0] + ":" + credParts[1] + ":***@" + parts[1]
			}
		}
	}
	return url
}
