package main

import (
	"context"

	agencyRepository "yxplore/internal/agencies/repository"
	agencyService "yxplore/internal/agencies/service"
	agencyValidator "yxplore/internal/agencies/validator"
	"yxplore/internal/bookings/handler"
	"yxplore/internal/bookings/repository"
	"yxplore/internal/bookings/service"
	"yxplore/internal/bookings/validator"
	"yxplore/internal/offers/gateway"
	offerHandler "yxplore/internal/offers/handler"
	offerService "yxplore/internal/offers/service"
	offerValidator "yxplore/internal/offers/validator"
	profileRepository "yxplore/internal/profiles/repository"
	profileService "yxplore/internal/profiles/service"
	profileValidator "yxplore/internal/profiles/validator"
	"yxplore/pkg/app"
	"yxplore/pkg/cache"
	"yxplore/pkg/config"
	"yxplore/pkg/events"
)

const (
	ServiceName = "bookings"
	cachePrefix = "offers"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(app.InitTracing(cfg, ServiceName))

	publisher, closePublisher := app.NewPublisher(cfg, ServiceName)
	serverApp.OnShutdown(closePublisher)

	offers, bookings := initServices(cfg, publisher)
	serverApp.SetApp(
		offerHandler.NewOfferHandler(offers, cfg.Log),
		handler.NewBookingHandler(bookings, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (offerService.OfferService, service.BookingService) {
	duffel, err := gateway.New(gateway.Config{
		BaseURL:     cfg.DuffelBaseURL,
		APIKey:      cfg.DuffelAPIKey(),
		APIVersion:  cfg.DuffelAPIVersion,
		LiveMode:    cfg.DuffelLiveMode,
		Timeout:     cfg.DuffelTimeout,
		MaxRetries:  cfg.DuffelMaxRetries,
		RetryDelay:  cfg.DuffelRetryDelay,
		SearchLimit: cfg.DuffelSearchLimit,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Duffel client", "error", err)
	}

	offers := offerService.NewOfferService(
		duffel,
		cache.NewRedisCache(cfg.Client.Redis, cachePrefix),
		offerValidator.NewOfferValidator(cfg.Log),
		cfg,
	)

	profileRepo := profileRepository.NewMongoProfileRepository(cfg)
	profiles := profileService.NewProfileService(
		profileRepo,
		profileValidator.NewProfileValidator(cfg.Log),
		publisher,
		cfg,
	)
	agencies := agencyService.NewAgencyService(
		agencyRepository.NewMongoAgencyRepository(cfg),
		profileRepo,
		agencyValidator.NewAgencyValidator(cfg.Log),
		publisher,
		cfg,
	)
	if _, err := agencies.DefaultAgency(context.Background()); err != nil {
		cfg.Log.Fatal("Failed to provision default agency", "error", err)
	}

	bookings := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		agencies,
		profiles,
		offers,
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)
	return offers, bookings
}
