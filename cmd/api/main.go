package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"roadmech/internal/adapter/api"
	"roadmech/internal/adapter/api/handler"
	apimiddleware "roadmech/internal/adapter/api/middleware"
	"roadmech/internal/adapter/api/router"
	"roadmech/internal/adapter/repository"
	"roadmech/internal/domain/service"
	"roadmech/internal/infrastructure/firebase"
	"roadmech/internal/infrastructure/storage"
	"roadmech/internal/infrastructure/websocket"
	"roadmech/internal/usecase"
	"roadmech/pkg/config"
	"roadmech/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"))
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	profileRepo := repository.NewFirestoreMechanicProfileRepository(firestoreClient)
	bookingRepo := repository.NewFirestoreBookingRepository(firestoreClient)
	subscriptionRepo := repository.NewFirestoreSubscriptionRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	pendingRepo := repository.NewFirestorePendingRegistrationRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)
	paymentService := service.NewStripePaymentService(cfg.StripeSecretKey)
	otpService := service.NewDevOTPService(cfg.IsDevelopment())

	hub := websocket.NewHub()
	hub.Start(ctx)
	gateway := websocket.NewGateway(hub, firebaseAuthClient)

	authUseCase := usecase.NewAuthUseCase(
		userRepo, profileRepo, pendingRepo, firebaseAuthClient, otpService,
		time.Duration(cfg.OTPExpiryMins)*time.Minute,
	)
	userUseCase := usecase.NewUserUseCase(userRepo, profileRepo, storageClient)
	subscriptionUseCase := usecase.NewSubscriptionUseCase(subscriptionRepo, userRepo, bookingRepo, paymentService)
	bookingUseCase := usecase.NewBookingUseCase(bookingRepo, userRepo, profileRepo, chatRepo, subscriptionUseCase, paymentService, storageClient, gateway)
	matchingUseCase := usecase.NewMatchingUseCase(profileRepo, userRepo, bookingRepo)
	mechanicUseCase := usecase.NewMechanicUseCase(userRepo, profileRepo, bookingRepo, storageClient)
	chatUseCase := usecase.NewChatUseCase(chatRepo, bookingRepo, gateway)
	adminUseCase := usecase.NewAdminUseCase(userRepo, profileRepo, bookingRepo, subscriptionRepo, chatRepo, firebaseAuthClient)

	gateway.Bind(chatUseCase, bookingUseCase, authUseCase)

	handler.Setup(
		authUseCase,
		userUseCase,
		bookingUseCase,
		matchingUseCase,
		mechanicUseCase,
		chatUseCase,
		subscriptionUseCase,
		adminUseCase,
	)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)
	mechanicMiddleware := apimiddleware.NewMechanicMiddleware(userRepo)

	router.Setup(e, authMiddleware, adminMiddleware, mechanicMiddleware)
	router.SetupWebSocketRouter(e, handler.NewWebSocketHandler(gateway))

	logger.Info("Starting server on port %s (environment: %s)", cfg.ServerPort, cfg.Environment)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
