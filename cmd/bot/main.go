// Package main — ponto de entrada do bot de rifas.
// Carrega a configuração, inicializa a aplicação e inicia o polling.
// Suporta graceful shutdown via SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/app"
	"rifa-bot/internal/config"
)

func main() {
	setupLogging()

	// .env é opcional: em produção as variáveis vêm do ambiente
	if err := godotenv.Load(); err != nil {
		log.Debug("Arquivo .env não encontrado, usando variáveis do ambiente")
	}

	log.Info("=== Bot de rifas iniciando ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Não foi possível carregar a configuração")
	}

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	// Contexto com cancelamento para graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Não foi possível inicializar a aplicação")
	}
	defer application.DB.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Não foi possível iniciar o agendador")
	}
	defer application.Scheduler.Stop()

	// Sinais de parada (Ctrl+C, docker stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go application.Bot.Start(ctx)

	log.Info("=== Bot pronto ===")

	sig := <-quit
	log.Infof("Sinal %s recebido, encerrando...", sig)

	cancel()

	log.Info("=== Bot encerrado ===")
}

// setupLogging configura o formato dos logs.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
