package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linegpt/internal/api"
	"linegpt/internal/bot"
	"linegpt/internal/chatgpt"
	"linegpt/internal/conversation"
	"linegpt/internal/line"
	"linegpt/internal/news"
	"linegpt/pkg/config"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()

	store := conversation.NewStore(cfg.MaxHistoryLength)
	chatService := chatgpt.NewService(cfg)
	newsService := news.NewService(cfg.FinancialNewsAPIKey)
	lineClient := line.NewClient(cfg.LineChannelAccessToken)

	botHandler, err := bot.NewHandler(cfg, chatService, newsService, store, lineClient)
	if err != nil {
		logrus.Fatalf("Error initializing LINE bot: %v", err)
	}

	scheduler := news.NewScheduler(newsService, cfg.NewsUserIDs, cfg.NewsSendTime,
		func(ctx context.Context, userID, text string) error {
			return lineClient.Send(ctx, line.PushTarget{UserID: userID}, text)
		})
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(cfg, store, scheduler, lineClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", botHandler.HandleCallback)
	mux.HandleFunc("/", apiHandler.Index)
	mux.HandleFunc("/health", apiHandler.Health)
	mux.HandleFunc("/debug", apiHandler.Debug)
	mux.HandleFunc("/send_news", apiHandler.SendNews)
	mux.HandleFunc("/test_message", apiHandler.TestMessage)
	mux.HandleFunc("/get_user_id", apiHandler.GetUserID)

	server := &http.Server{
		Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
		Handler: mux,
	}

	go func() {
		logrus.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Error during server shutdown: %v", err)
	}

	logrus.Info("Server stopped")
}
