package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/surveybd/survey-service/internal/cache"
	"github.com/surveybd/survey-service/internal/email"
	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager.
type ServiceManagerConfig struct {
	SessionTTL time.Duration
	EmailFrom  string
}

// serviceManager implements ServiceManager.
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	sender    email.Sender
	drafts    *cache.DraftStore
	config    ServiceManagerConfig

	// Service instances
	authService     AuthService
	otpService      OTPService
	surveyService   SurveyService
	responseService ResponseService
	resultsService  ResultsService
	userService     UserService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, sender email.Sender, drafts *cache.DraftStore, config ServiceManagerConfig) ServiceManager {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 168 * time.Hour
	}
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		sender:    sender,
		drafts:    drafts,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.publisher, sm.config.SessionTTL)
	sm.otpService = NewOTPService(sm.repo, sm.logger, sm.validator, sm.sender, sm.config.EmailFrom, sm.publisher, sm.config.SessionTTL)
	sm.surveyService = NewSurveyService(sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.responseService = NewResponseService(sm.repo, sm.logger, sm.validator, sm.publisher, sm.drafts)
	sm.resultsService = NewResultsService(sm.repo, sm.logger, sm.validator)
	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized")

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Auth() AuthService         { return sm.authService }
func (sm *serviceManager) OTP() OTPService           { return sm.otpService }
func (sm *serviceManager) Survey() SurveyService     { return sm.surveyService }
func (sm *serviceManager) Response() ResponseService { return sm.responseService }
func (sm *serviceManager) Results() ResultsService   { return sm.resultsService }
func (sm *serviceManager) User() UserService         { return sm.userService }
