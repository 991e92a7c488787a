package repository

import (
	"github.com/ntechservices/subscription/internal/cache"
	"github.com/ntechservices/subscription/internal/domain/coupon"
	"github.com/ntechservices/subscription/internal/domain/entitlement"
	"github.com/ntechservices/subscription/internal/domain/feature"
	"github.com/ntechservices/subscription/internal/domain/plan"
	"github.com/ntechservices/subscription/internal/domain/price"
	"github.com/ntechservices/subscription/internal/domain/subscription"
	"github.com/ntechservices/subscription/internal/domain/usage"
	"github.com/ntechservices/subscription/internal/logger"
	"github.com/ntechservices/subscription/internal/postgres"
	postgresRepo "github.com/ntechservices/subscription/internal/repository/postgres"
)

func NewPlanRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger, cache)
}

func NewPriceRepository(db *postgres.DB, logger *logger.Logger) price.Repository {
	return postgresRepo.NewPriceRepository(db, logger)
}

func NewFeatureRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) feature.Repository {
	return postgresRepo.NewFeatureRepository(db, logger, cache)
}

func NewEntitlementRepository(db *postgres.DB, logger *logger.Logger) entitlement.Repository {
	return postgresRepo.NewEntitlementRepository(db, logger)
}

func NewCouponRepository(db *postgres.DB, logger *logger.Logger) coupon.Repository {
	return postgresRepo.NewCouponRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewSubscriptionHistoryRepository(db *postgres.DB, logger *logger.Logger) subscription.HistoryRepository {
	return postgresRepo.NewSubscriptionHistoryRepository(db, logger)
}

func NewUsageRepository(db *postgres.DB, logger *logger.Logger) usage.Repository {
	return postgresRepo.NewUsageRepository(db, logger)
}
