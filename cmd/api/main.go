package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"storedesk/internal/adapter/api"
	"storedesk/internal/adapter/api/handler"
	apimiddleware "storedesk/internal/adapter/api/middleware"
	"storedesk/internal/adapter/api/router"
	"storedesk/internal/adapter/repository"
	"storedesk/internal/domain/service"
	"storedesk/internal/infrastructure/firebase"
	"storedesk/internal/infrastructure/storage"
	"storedesk/internal/infrastructure/websocket"
	"storedesk/internal/usecase"
	"storedesk/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	primaryStorage, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer primaryStorage.Close()

	var fallbackStorage service.Uploader
	if cfg.FallbackStorageBucket != "" {
		fallbackClient, err := storage.NewCloudStorageClient(ctx, cfg.FallbackStorageBucket, opt)
		if err != nil {
			log.Fatalf("Failed to initialize fallback Cloud Storage: %v", err)
		}
		defer fallbackClient.Close()
		fallbackStorage = fallbackClient
	}
	uploader := service.NewFallbackUploader(primaryStorage, fallbackStorage)

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)
	identityResolver := firebase.NewIdentityResolver(firebaseAuthClient, userRepo, cfg.CachedIdentityID, cfg.CachedIdentityName)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	masking := service.NewMaskingPolicy(cfg.AdminLabel)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, userRepo, masking, identityResolver, wsManager, cfg.WelcomeGreeting)

	statusPoller := usecase.NewStatusPoller(userRepo, wsManager, time.Duration(cfg.StatusPollSeconds)*time.Second)
	statusPoller.Start(ctx)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	conversationHandler := handler.NewConversationHandler(chatUseCase, userRepo)
	uploadHandler := handler.NewUploadHandler(uploader)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, userRepo, chatUseCase)
	healthHandler := handler.NewHealthHandler()

	router.Setup(e, authMiddleware, adminMiddleware, conversationHandler, uploadHandler, wsHandler, healthHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
