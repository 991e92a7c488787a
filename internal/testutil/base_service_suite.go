package testutil

import (
	"context"
	"time"

	"github.com/ntechservices/subscription/internal/config"
	"github.com/ntechservices/subscription/internal/domain/coupon"
	"github.com/ntechservices/subscription/internal/domain/entitlement"
	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/plan"
	"github.com/ntechservices/subscription/internal/domain/price"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	"github.com/ntechservices/subscription/internal/domain/usage"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/ntechservices/subscription/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	DB              postgres.TxManager
	PlanRepo        plan.Repository
	PriceRepo       price.Repository
	FeatureRepo     feature.Repository
	EntitlementRepo entitlement.Repository
	CouponRepo      coupon.Repository
	SubRepo         subscription.Repository
	HistoryRepo     subscription.HistoryRepository
	UsageRepo       usage.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()

	var err error
	s.logger, err = logger.NewLogger(s.config)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		DB:              PassthroughTxManager{},
		PlanRepo:        NewInMemoryPlanStore(),
		PriceRepo:       NewInMemoryPriceStore(),
		FeatureRepo:     NewInMemoryFeatureStore(),
		EntitlementRepo: NewInMemoryEntitlementStore(),
		CouponRepo:      NewInMemoryCouponStore(),
		SubRepo:         NewInMemorySubscriptionStore(),
		HistoryRepo:     NewInMemorySubscriptionHistoryStore(),
		UsageRepo:       NewInMemoryFeatureUsageStore(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.PriceRepo.(*InMemoryPriceStore).Clear()
	s.stores.FeatureRepo.(*InMemoryFeatureStore).Clear()
	s.stores.EntitlementRepo.(*InMemoryEntitlementStore).Clear()
	s.stores.CouponRepo.(*InMemoryCouponStore).Clear()
	s.stores.SubRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.HistoryRepo.(*InMemorySubscriptionHistoryStore).Clear()
	s.stores.UsageRepo.(*InMemoryFeatureUsageStore).Clear()
}

// ClearStores clears all the in-memory stores
func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns the test stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current time stamped at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
