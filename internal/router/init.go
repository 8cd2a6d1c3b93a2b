package router

import (
	"github.com/eastgatechurch/eastgate-app/internal/application"
	"github.com/eastgatechurch/eastgate-app/internal/container"
	"github.com/eastgatechurch/eastgate-app/internal/infrastructure/authprovider"
	"github.com/eastgatechurch/eastgate-app/internal/infrastructure/gcstorage"
	pginfra "github.com/eastgatechurch/eastgate-app/internal/infrastructure/postgres"
	handlers "github.com/eastgatechurch/eastgate-app/internal/interface/http"
	"github.com/eastgatechurch/eastgate-app/internal/router/modules"
)

// InitModules builds the dependency graph once at startup and registers
// every feature module with the router registry.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	users := pginfra.NewUserRepository(container.GetPGPool())
	profiles := pginfra.NewProfileRepository(container.GetPGPool())

	backend := authprovider.New(
		users,
		profiles,
		container.GetJWT(),
		container.GetRedis(),
		container.GetRabbitPub(),
		logger,
		cfg,
	)
	storage := gcstorage.New(container.GetGCS(), cfg.GCSBucket)

	authSvc := application.NewAuthService(backend, logger, cfg)
	observer := application.NewSessionObserver(backend, logger, cfg)
	profileSvc := application.NewProfileService(backend, profiles, logger, container.GetES(), cfg.ESProfilesIndex)
	cache := application.NewProfileManager(profileSvc, logger)
	cache.Bind(backend)
	avatarSvc := application.NewAvatarService(backend, storage, profileSvc, cache, logger, cfg.AvatarSize, cfg.AvatarJPEGQuality)

	authHandler := handlers.NewAuthHandler(authSvc, observer, backend, logger, cfg)
	profileHandler := handlers.NewProfileHandler(profileSvc, avatarSvc, logger)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewProfileModule(profileHandler, container.GetJWT()))
	r.Add(modules.NewDebugModule())
}
