package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"purps/config"
	"purps/database"
	"purps/events"
	"purps/repository"
	"purps/service"

	"github.com/sirupsen/logrus"
)

// App holds the wired services for the running venue
type App struct {
	UserService       service.UserService
	TradeService      service.TradeService
	MarketService     service.MarketService
	WithdrawalService service.WithdrawalService
	EventBus          *events.Bus
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting purps...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	subscribeAuditLog(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	app := &App{
		UserService:       service.NewUserService(uowFactory, cfg),
		TradeService:      service.NewTradeService(uowFactory),
		MarketService:     service.NewMarketService(uowFactory),
		WithdrawalService: service.NewWithdrawalService(uowFactory, cfg),
		EventBus:          eventBus,
	}
	log.Println("Services initialized successfully")

	// Sanity check the market before accepting work
	coins, err := app.MarketService.ListCoins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list coins: %w", err)
	}
	if len(coins) == 0 {
		log.Println("Warning: no coins listed; run 'purps seed' to load the market")
	} else {
		log.Printf("Market loaded with %d coins", len(coins))
	}

	pending, err := app.WithdrawalService.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	if len(pending) > 0 {
		log.Printf("%d withdrawals awaiting operator review", len(pending))
	}

	// Wait for context cancellation
	log.Printf("Venue is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// subscribeAuditLog attaches structured-log subscribers for every event type,
// the venue's audit trail
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeTradeExecuted, func(ctx context.Context, event events.Event) {
		e := event.(events.TradeExecutedEvent)
		logrus.WithFields(logrus.Fields{
			"userID":        e.UserID,
			"coinID":        e.CoinID,
			"transactionID": e.TransactionID,
			"tradeType":     e.TradeType,
			"price":         e.Price,
		}).Info("Trade executed")
	})
	bus.Subscribe(events.EventTypePriceChanged, func(ctx context.Context, event events.Event) {
		e := event.(events.PriceChangedEvent)
		logrus.WithFields(logrus.Fields{
			"coinID":   e.CoinID,
			"oldPrice": e.OldPrice,
			"newPrice": e.NewPrice,
		}).Info("Price changed")
	})
	bus.Subscribe(events.EventTypeBalanceChanged, func(ctx context.Context, event events.Event) {
		e := event.(events.BalanceChangedEvent)
		logrus.WithFields(logrus.Fields{
			"userID":     e.UserID,
			"oldBalance": e.OldBalance,
			"newBalance": e.NewBalance,
			"reason":     e.Reason,
		}).Info("Balance changed")
	})
	bus.Subscribe(events.EventTypeWithdrawalRequested, func(ctx context.Context, event events.Event) {
		e := event.(events.WithdrawalRequestedEvent)
		logrus.WithFields(logrus.Fields{
			"withdrawalID": e.WithdrawalID,
			"userID":       e.UserID,
			"amount":       e.Amount,
		}).Info("Withdrawal requested")
	})
	bus.Subscribe(events.EventTypeWithdrawalResolved, func(ctx context.Context, event events.Event) {
		e := event.(events.WithdrawalResolvedEvent)
		logrus.WithFields(logrus.Fields{
			"withdrawalID": e.WithdrawalID,
			"userID":       e.UserID,
			"amount":       e.Amount,
			"status":       e.Status,
		}).Info("Withdrawal resolved")
	})
}
