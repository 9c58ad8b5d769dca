/*
Wordcount runs a Discord bot that counts the words, messages, attachments and
keywords people send in a server, and answers slash commands about them.

It takes in no flags but multiple environment variables, which can also be put
in a .env file. Events come in over the gateway; interactions are answered over
the gateway too, or through the webhook endpoint when a verify key is set. The
http server will not serve TLS by default, but can be enabled if a cert and key
file are provided.

It's backed by a SQLite DB, but does not reqire CGO to compile. There are migrations
in the repo that are run on startup before the bot connects.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/wordcount/internal/bot"
	"github.com/jdholdren/wordcount/internal/core"
	"github.com/jdholdren/wordcount/internal/core/db"
	"github.com/jdholdren/wordcount/internal/discord"
	"github.com/jdholdren/wordcount/internal/discserv"
	"github.com/jdholdren/wordcount/internal/logging"
	"github.com/jdholdren/wordcount/internal/paginator"
	"github.com/jdholdren/wordcount/migrate"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("error loading .env: %s", err)
	}

	l := logging.NewLogger()
	defer func() {
		if err := l.Sync(); err != nil {
			log.Printf("error syncing logger: %s", err)
		}
	}()

	l.Debug("parsing config...")
	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		l.Fatalf("error parsing config: %s", err)
	}
	l.Infow("parsed config", "config", cfg)

	// Connect to the database
	sqlDB, err := setupDB(cfg)
	if err != nil {
		l.Fatalf("error opening db: %s", err)
	}
	defer sqlDB.Close()
	d := db.New(sqlDB)

	cr := core.New(d)

	sess, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		l.Fatalf("error creating discord session: %s", err)
	}
	sess.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers
	// Edits and deletes are only counted for messages still in the cache
	sess.State.MaxMessageCount = cfg.MessageCacheSize

	dCli := discord.NewClient(
		discord.ClientConfig{
			AppID: cfg.DiscordAppID,
			Token: cfg.DiscordToken,
		},
		sess,
		l.Named("discord_client"),
	)

	b := bot.New(cr, dCli, paginator.NewManager(l.Named("paginator")), bot.Config{
		Prefix:           cfg.CommandPrefix,
		OwnerID:          cfg.DiscordOwnerID,
		GuildIDs:         cfg.DiscordGuildIDs,
		PaginatorTimeout: cfg.PaginatorTimeout,
	}, l.Named("bot"))

	sess.AddHandler(b.OnMessageCreate)
	sess.AddHandler(b.OnMessageUpdate)
	sess.AddHandler(b.OnMessageDelete)
	// With a verify key discord sends interactions to the webhook instead
	if cfg.DiscordVerifyKey == "" {
		sess.AddHandler(b.OnInteractionCreate)
	}
	sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		l.Infow("connected to the gateway", "user", r.User.Username, "guilds", len(r.Guilds))
	})

	if !cfg.SkipRegister {
		if err := registerCommands(dCli, cfg.DiscordGuildIDs); err != nil {
			l.Fatalf("error registering commands: %s", err)
		}
	}

	s, err := discserv.New(
		l.Named("discserv"),
		discserv.Config{
			Port:        cfg.Port,
			VerifyKey:   cfg.DiscordVerifyKey,
			TLSCertFile: cfg.TLSCertFile,
			TLSKeyFile:  cfg.TLSKeyFile,
		},
		b,
	)
	if err != nil {
		l.Fatalf("error creating discord server: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sess.Open(); err != nil {
			return fmt.Errorf("error opening gateway connection: %s", err)
		}
		<-ctx.Done()
		return sess.Close()
	})
	g.Go(func() error {
		return s.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		l.Errorw("error while running", "err", err)
	}
	l.Info("shut down")
}

// registerCommands registers in every configured guild, or globally without any
func registerCommands(dCli *discord.Client, guildIDs []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(guildIDs) == 0 {
		_, err := dCli.RegisterCommands(ctx, "")
		return err
	}

	for _, guildID := range guildIDs {
		if _, err := dCli.RegisterCommands(ctx, guildID); err != nil {
			return fmt.Errorf("error registering commands for guild '%s': %w", guildID, err)
		}
	}

	return nil
}

type config struct {
	// Server
	Port        int    `env:"PORT,default=8080"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// Database
	DBPath string `env:"DB_PATH,default=wordcount.sqlite"`

	// Discord stuffs
	DiscordToken     string   `env:"DISCORD_TOKEN,required"`
	DiscordAppID     string   `env:"DISCORD_APP_ID,required"`
	DiscordGuildIDs  []string `env:"DISCORD_GUILD_IDS"`
	DiscordVerifyKey string   `env:"DISCORD_VERIFY_KEY"`
	DiscordOwnerID   string   `env:"DISCORD_OWNER_ID"`
	// If we should not try to register commands with discord
	SkipRegister bool `env:"SKIP_REGISTER"`

	// Bot behaviour
	CommandPrefix    string        `env:"COMMAND_PREFIX,default=!wc"`
	MessageCacheSize int           `env:"MESSAGE_CACHE_SIZE,default=1000"`
	PaginatorTimeout time.Duration `env:"PAGINATOR_TIMEOUT,default=180s"`
}

func (c config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("port", c.Port)
	enc.AddString("db_path", c.DBPath)
	enc.AddString("tls_cert_file", c.TLSCertFile)
	enc.AddString("tls_key_file", c.TLSKeyFile)
	enc.AddString("discord_app_id", c.DiscordAppID)
	enc.AddString("discord_owner_id", c.DiscordOwnerID)
	enc.AddInt("discord_guilds", len(c.DiscordGuildIDs))
	enc.AddBool("webhook", c.DiscordVerifyKey != "")
	enc.AddBool("skip_register", c.SkipRegister)
	enc.AddString("command_prefix", c.CommandPrefix)
	enc.AddInt("message_cache_size", c.MessageCacheSize)
	enc.AddDuration("paginator_timeout", c.PaginatorTimeout)

	return nil
}

// Connects to the db and migrates it
func setupDB(c config) (*sqlx.DB, error) {
	u, err := url.Parse(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error parsing db path: %s", err)
	}
	q := u.Query()
	q.Add("_pragma", "journal_mode(wal)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_txlock", "immediate")
	u.RawQuery = q.Encode()

	db, err := sqlx.Open("sqlite", u.String())
	if err != nil {
		return nil, fmt.Errorf("error opening db: %s", err)
	}
	// Gateway events are handled concurrently, writers queue on the one connection
	db.SetMaxOpenConns(1)

	if err := migrate.Up(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
