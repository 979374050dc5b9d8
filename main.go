package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thanhpv/careminder/internal/ai"
	"github.com/thanhpv/careminder/internal/analysis"
	"github.com/thanhpv/careminder/internal/assistant"
	"github.com/thanhpv/careminder/internal/config"
	"github.com/thanhpv/careminder/internal/dispatch"
	"github.com/thanhpv/careminder/internal/notes"
	"github.com/thanhpv/careminder/internal/ocr"
	"github.com/thanhpv/careminder/internal/reminder"
	"github.com/thanhpv/careminder/internal/server"
	"github.com/thanhpv/careminder/internal/storage"
)

func main() {
	logger := log.New(os.Stdout, "[careminder] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	store, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("storage init failed: %v", err)
	}

	aiClient := ai.New(cfg)
	if !aiClient.Configured() {
		logger.Printf("GROQ_API_KEY not set, notes will be saved without analysis")
	}

	noteService := notes.NewService(
		store,
		store,
		aiClient,
		analysis.NewNormalizer(cfg.LocalTimezone),
		reminder.NewEngine(reminder.DefaultRules()),
		logger,
	)
	assistantService := assistant.NewService(store, aiClient, logger)

	notifier := dispatch.NewWhatsAppNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, cfg.ReminderRecipient)
	dispatcher := dispatch.NewDispatcher(store, nilIfEmpty(notifier), cfg.LocalTimezone, logger)
	if err := dispatcher.Start(); err != nil {
		logger.Fatalf("dispatcher start: %v", err)
	}

	api := server.New(noteService, assistantService, store, aiClient, ocr.NewTesseract(cfg.TesseractCmd), logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Handler(),
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, dispatcher, logger)
}

// nilIfEmpty keeps a nil *WhatsAppNotifier from becoming a non-nil Notifier
// interface value.
func nilIfEmpty(n *dispatch.WhatsAppNotifier) dispatch.Notifier {
	if n == nil {
		return nil
	}
	return n
}

func waitForShutdown(httpServer *http.Server, dispatcher *dispatch.Dispatcher, logger *log.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	dispatcher.Stop()
}
