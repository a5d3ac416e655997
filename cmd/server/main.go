package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"supplier-recon/internal/adapters/diag"
	webAdapter "supplier-recon/internal/adapters/web"
	"supplier-recon/internal/ai"
	"supplier-recon/internal/app"
	"supplier-recon/internal/core"
	"supplier-recon/internal/db"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	parser := core.NewStatementParser(diag.NewZap(logger))
	statements := core.NewStatementService(pool)

	var agent ai.AgentService
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set, divergence review disabled")
	}

	svc := app.NewAppService(statements, parser, app.PlainTextExtractor{}, agent)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	router := webAdapter.NewRouter(svc, pool, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("server: %v", err)
	}
}
