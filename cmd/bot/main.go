package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jamesdwilson/byteball-merchant/internal/bot"
	"github.com/jamesdwilson/byteball-merchant/internal/config"
	"github.com/jamesdwilson/byteball-merchant/internal/database"
	"github.com/jamesdwilson/byteball-merchant/internal/handler"
	"github.com/jamesdwilson/byteball-merchant/internal/keys"
	"github.com/jamesdwilson/byteball-merchant/internal/queue"
	"github.com/jamesdwilson/byteball-merchant/internal/ratelimit"
	"github.com/jamesdwilson/byteball-merchant/internal/repository"
	"github.com/jamesdwilson/byteball-merchant/internal/router"
	"github.com/jamesdwilson/byteball-merchant/internal/service"
	"github.com/jamesdwilson/byteball-merchant/internal/wallet"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	// Device identity: load or generate the key file, then print the
	// pairing code the operator hands out to customers.
	deviceKeys, err := keys.LoadOrCreate(cfg.KeysFile)
	if err != nil {
		log.Fatalf("load device keys: %v", err)
	}
	pubKey := deviceKeys.PubKey()
	log.Printf("device name: %s", cfg.DeviceName)
	log.Printf("my device pubkey: %s", pubKey)
	log.Printf("my pairing code: %s@%s#%s", pubKey, cfg.Hub, cfg.PairingSecret)

	sessions := repository.NewSessionRepo(db)
	ledger := repository.NewLedgerRepo(db)
	wallets := repository.NewWalletRepo(db)
	pairing := repository.NewPairingRepo(db)

	if err := pairing.EnsurePermanentSecret(ctx, cfg.PairingSecret); err != nil {
		log.Fatalf("register pairing secret: %v", err)
	}

	// Resolve the wallet identity once.  An unconfigured wallet is not
	// fatal: the bot answers "not set up yet" until the home device
	// triggers creation.
	walletSvc := wallet.New(wallets, cfg.XPubKey)
	if err := walletSvc.Resolve(ctx); err != nil {
		log.Fatalf("resolve wallet: %v", err)
	}
	if id, ok := walletSvc.ID(); ok {
		log.Printf("wallet: %s", id)
	} else {
		log.Printf("wallet: not configured yet, waiting for home device %s", cfg.HomeDeviceAddress)
	}

	messenger := service.NewMessenger(cfg.AMQPURL)
	limiter := ratelimit.New(config.NewRedisClient(), config.LoadRateLimitConfig())

	locks := bot.NewLocks()
	engine := bot.NewEngine(sessions, walletSvc, messenger, cfg.HomeDeviceAddress)
	reconciler := bot.NewReconciler(sessions, ledger, messenger, locks)
	dispatcher := bot.NewDispatcher(engine, reconciler, limiter, locks)

	go func() {
		if err := queue.StartEventConsumer(cfg.AMQPURL, dispatcher); err != nil {
			log.Fatalf("event consumer: %v", err)
		}
	}()

	// Operator API
	e := echo.New()
	router.RegisterRoutes(e)
	auth := handler.NewAuthHandler(cfg.JWTSecret, cfg.OperatorPassHash, cfg.AccessTTLMin)
	orders := handler.NewOrdersHandler(sessions, walletSvc)
	router.RegisterOps(e, auth, orders, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
