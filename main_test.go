package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"

	"github.com/jdholdren/wordcount/internal/core"
	"github.com/jdholdren/wordcount/internal/core/db"
	"github.com/jdholdren/wordcount/internal/core/models"
)

func TestSetupDBConcurrentWrites(t *testing.T) {
	ctx := context.Background()

	sqlDB, err := setupDB(config{DBPath: filepath.Join(t.TempDir(), "wordcount.sqlite")})
	if err != nil {
		t.Fatalf("unexpected error setting up db: %s", err)
	}
	defer sqlDB.Close()

	var mode string
	if err := sqlDB.Get(&mode, "PRAGMA journal_mode;"); err != nil {
		t.Fatalf("unexpected error reading journal mode: %s", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %s, want wal", mode)
	}

	cr := core.New(db.New(sqlDB))
	if err := cr.EnableServer(ctx, "guild-1"); err != nil {
		t.Fatalf("unexpected error enabling: %s", err)
	}

	const n = 200
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := cr.RecordMessage(ctx, models.Message{
				GuildID:         "guild-1",
				ChannelID:       fmt.Sprintf("chan-%d", i%4),
				SourceChannelID: fmt.Sprintf("chan-%d", i%4),
				AuthorID:        fmt.Sprintf("user-%d", i%10),
				Content:         "two words",
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("%d of %d messages failed, first: %s", len(errs), n, errs[0])
	}

	board, err := cr.MessageLeaderboard(ctx, "guild-1", "")
	if err != nil {
		t.Fatalf("unexpected error reading leaderboard: %s", err)
	}
	var messages int64
	for _, c := range board {
		messages += c.Count
	}
	if messages != n {
		t.Errorf("recorded %d messages, want %d", messages, n)
	}
}

func TestConfigRequiresAppID(t *testing.T) {
	var cfg config
	err := envconfig.ProcessWith(context.Background(), &cfg, envconfig.MapLookuper(map[string]string{
		"DISCORD_TOKEN": "token",
	}))
	if err == nil {
		t.Fatal("expected an error without DISCORD_APP_ID")
	}

	cfg = config{}
	err = envconfig.ProcessWith(context.Background(), &cfg, envconfig.MapLookuper(map[string]string{
		"DISCORD_TOKEN":  "token",
		"DISCORD_APP_ID": "123",
	}))
	if err != nil {
		t.Fatalf("unexpected error processing config: %s", err)
	}

	want := config{
		Port:             8080,
		DBPath:           "wordcount.sqlite",
		DiscordToken:     "token",
		DiscordAppID:     "123",
		CommandPrefix:    "!wc",
		MessageCacheSize: 1000,
		PaginatorTimeout: 180 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
