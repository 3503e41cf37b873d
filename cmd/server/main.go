package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/api/option"

	"github.com/omsharma/finbuddy/backend/internal/api"
	"github.com/omsharma/finbuddy/backend/internal/config"
	"github.com/omsharma/finbuddy/backend/internal/recurring"
	"github.com/omsharma/finbuddy/backend/internal/search"
	"github.com/omsharma/finbuddy/backend/internal/service"
	"github.com/omsharma/finbuddy/backend/internal/store"
	"github.com/omsharma/finbuddy/backend/internal/textmatch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var storeImpl store.Store
	switch cfg.Store.Mode {
	case "memory":
		log.Println("Using in-memory store for local development")
		storeImpl = store.NewMemoryStore()
	case "firestore":
		var opts []option.ClientOption
		if cfg.Store.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Store.CredentialsFile))
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.Store.ProjectID, opts...)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()
		storeImpl = store.NewFirestoreStore(firestoreClient)
	}

	// Search is optional; the service degrades to store-only listing without it.
	var index service.TransactionIndex
	if cfg.Algolia.AppID != "" && cfg.Algolia.APIKey != "" {
		algoliaClient, err := search.NewAlgoliaClient(search.Config{
			AppID:     cfg.Algolia.AppID,
			APIKey:    cfg.Algolia.APIKey,
			IndexName: cfg.Algolia.IndexName,
		})
		if err != nil {
			log.Fatalf("Failed to create Algolia client: %v", err)
		}
		index = algoliaClient
		log.Printf("Search enabled (index %s)", cfg.Algolia.IndexName)
	} else {
		log.Println("Search disabled: no Algolia credentials configured")
	}

	detector := recurring.NewDetector(textmatch.FuzzyMatch, textmatch.CleanBankText)
	matcher := recurring.NewMatcher(textmatch.FuzzyMatch)
	financeService := service.NewFinanceService(storeImpl, detector, matcher, index)

	mux := http.NewServeMux()
	api.New(financeService).Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"User-Agent",
			"X-User-ID",
		},
		AllowCredentials: true,
	})
	handler := c.Handler(mux)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	log.Printf("Starting server on port %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
