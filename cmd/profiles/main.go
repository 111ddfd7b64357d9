package main

import (
	agencyHandler "yxplore/internal/agencies/handler"
	agencyRepository "yxplore/internal/agencies/repository"
	agencyService "yxplore/internal/agencies/service"
	agencyValidator "yxplore/internal/agencies/validator"
	kycHandler "yxplore/internal/kyc/handler"
	kycRepository "yxplore/internal/kyc/repository"
	kycService "yxplore/internal/kyc/service"
	kycValidator "yxplore/internal/kyc/validator"
	"yxplore/internal/profiles/handler"
	"yxplore/internal/profiles/repository"
	"yxplore/internal/profiles/service"
	"yxplore/internal/profiles/validator"
	"yxplore/pkg/app"
	"yxplore/pkg/config"
	"yxplore/pkg/contracts"
	"yxplore/pkg/events"
)

const ServiceName = "profiles"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Profiles service")
	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(app.InitTracing(cfg, ServiceName))

	publisher, closePublisher := app.NewPublisher(cfg, ServiceName)
	serverApp.OnShutdown(closePublisher)

	serverApp.SetApp(initHandlers(cfg, publisher)...)
	serverApp.Run()
}

// initHandlers wires the registry, the KYC workflow and the agency directory
// over one profile repository.
func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	profileRepo := repository.NewMongoProfileRepository(cfg)

	profiles := service.NewProfileService(
		profileRepo,
		validator.NewProfileValidator(cfg.Log),
		publisher,
		cfg,
	)
	kyc := kycService.NewKycService(
		kycRepository.NewMongoValidationRepository(cfg),
		profileRepo,
		kycValidator.NewKycValidator(cfg.Log),
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

	cfg.Log.Info("Profile services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		handler.NewProfileHandler(profiles, cfg.Log),
		kycHandler.NewKycHandler(kyc, cfg.Log),
		agencyHandler.NewAgencyHandler(agencies, cfg.Log),
	}
}
