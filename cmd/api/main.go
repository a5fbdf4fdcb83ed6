package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/donkcry/B--Blog/internal/config"
	"github.com/donkcry/B--Blog/internal/infrastructure/dynamo"
	jwtinfra "github.com/donkcry/B--Blog/internal/infrastructure/jwt"
	s3infra "github.com/donkcry/B--Blog/internal/infrastructure/s3"
	"github.com/donkcry/B--Blog/internal/infrastructure/smtp"
	"github.com/donkcry/B--Blog/internal/infrastructure/sns"
	transporthttp "github.com/donkcry/B--Blog/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider is optional; missing keys fall back to unauthenticated routes.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS account-event publisher is optional.
	var events sns.EventPublisher
	if pub, err := sns.NewPublisher(cfg); err == nil {
		events = pub
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	deps := &transporthttp.Deps{
		AccountRepo:  dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts, cfg.DynamoTables.AccountUniques, cfg.DynamoTables.VerificationCodes),
		SessionRepo:  dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		CodeRepo:     dynamo.NewCodeRepo(dynamoClient, cfg.DynamoTables.VerificationCodes),
		BlogRepo:     dynamo.NewBlogRepo(dynamoClient, cfg.DynamoTables.Blogs),
		CategoryRepo: dynamo.NewCategoryRepo(dynamoClient, cfg.DynamoTables.BlogCategories),
		CommentRepo:  dynamo.NewCommentRepo(dynamoClient, cfg.DynamoTables.BlogComments),
		FileRepo:     dynamo.NewFileRepo(dynamoClient, cfg.DynamoTables.Files),
		S3Store:      s3Store,
		Mailer:       mailer,
		Events:       events,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
