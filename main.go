package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/robfig/cron/v3"
	tele "gopkg.in/telebot.v3"

	"github.com/yonathanth/betbot-sub000/bot"
	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/routes"
	"github.com/yonathanth/betbot-sub000/services"
	"github.com/yonathanth/betbot-sub000/storage"
	"github.com/yonathanth/betbot-sub000/utils"
)

const (
	stateIdleTTL    = 2 * time.Hour
	stateSweepEvery = "@every 30m"
	batchMaxAge     = 10 * time.Minute
	batchSweepEvery = "@every 10m"
	clickPruneSpec  = "@daily"
)

func main() {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	utils.InitLogger()

	db := storage.InitializeDB()
	storage.InitializeRedis()
	store := storage.NewDBStore(db)

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Panic("BOT_TOKEN environment variable is required")
	}
	channelID, err := strconv.ParseInt(os.Getenv("CHANNEL_ID"), 10, 64)
	if err != nil {
		log.Panic("CHANNEL_ID environment variable is required and must be numeric")
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Panic("error starting bot: " + err.Error())
	}

	logger := slog.Default()
	admins := bot.NewAdminPolicy(bot.ParseAdminIDs(os.Getenv("ADMIN_IDS")), store, logger)
	publisher := services.NewChannelPublisher(b, admins, channelID, logger)

	states := bot.NewMemoryStateStore()
	gateway := bot.NewTelegramGateway(b, logger)
	listingFlow := bot.NewListingFlow(store, states, gateway, publisher, logger)
	moderationFlow := bot.NewModerationFlow(store, states, gateway, publisher, listingFlow, logger)
	dispatcher := bot.NewDispatcher(store, states, gateway, publisher, admins, listingFlow, moderationFlow, logger)
	bot.Register(b, dispatcher)

	startJobs(states, store, logger)
	go startDashboard(store, logger)

	logger.Info("bot started 🚀", "channel", channelID)
	b.Start()
}

// startJobs schedules the maintenance loops: idle dialogue cleanup, stale
// album buffer cleanup and the click retention prune.
func startJobs(states *bot.MemoryStateStore, store storage.Store, logger *slog.Logger) {
	c := cron.New()

	c.AddFunc(stateSweepEvery, func() {
		if n := states.SweepStates(stateIdleTTL); n > 0 {
			logger.Info("swept idle dialogues", "count", n)
		}
	})
	c.AddFunc(batchSweepEvery, func() {
		if n := states.SweepBatches(batchMaxAge); n > 0 {
			logger.Info("swept stale media batches", "count", n)
		}
	})
	c.AddFunc(clickPruneSpec, func() {
		cutoff := time.Now().AddDate(0, 0, -models.ClickRetentionDays)
		n, err := store.PruneClicks(context.Background(), cutoff)
		if err != nil {
			logger.Error("click prune failed", "err", err)
			return
		}
		logger.Info("pruned old clicks", "count", n)
	})

	c.Start()
}

func startDashboard(store storage.Store, logger *slog.Logger) {
	routes.UseStore(store)

	app := iris.New()
	app.Validator = validator.New()
	app.Use(iris.Compression)

	routes.DashboardRoutes(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := app.Listen(":" + port); err != nil {
		logger.Error("dashboard server stopped", "err", err)
	}
}
