package handler

import (
	"roadmech/internal/usecase"
)

var (
	authHandler         *AuthHandler
	userHandler         *UserHandler
	bookingHandler      *BookingHandler
	mechanicHandler     *MechanicHandler
	chatHandler         *ChatHandler
	subscriptionHandler *SubscriptionHandler
	adminHandler        *AdminHandler
	healthHandler       *HealthHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	bookingUseCase *usecase.BookingUseCase,
	matchingUseCase *usecase.MatchingUseCase,
	mechanicUseCase *usecase.MechanicUseCase,
	chatUseCase *usecase.ChatUseCase,
	subscriptionUseCase *usecase.SubscriptionUseCase,
	adminUseCase *usecase.AdminUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase)
	bookingHandler = NewBookingHandler(bookingUseCase, matchingUseCase)
	mechanicHandler = NewMechanicHandler(mechanicUseCase, matchingUseCase, userUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	subscriptionHandler = NewSubscriptionHandler(subscriptionUseCase)
	adminHandler = NewAdminHandler(adminUseCase, subscriptionUseCase)
	healthHandler = NewHealthHandler()
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetBookingHandler() *BookingHandler {
	return bookingHandler
}

func GetMechanicHandler() *MechanicHandler {
	return mechanicHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetSubscriptionHandler() *SubscriptionHandler {
	return subscriptionHandler
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
