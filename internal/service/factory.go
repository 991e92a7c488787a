package service

import (
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
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.TxManager

	// Repositories
	PlanRepo        plan.Repository
	PriceRepo       price.Repository
	FeatureRepo     feature.Repository
	EntitlementRepo entitlement.Repository
	CouponRepo      coupon.Repository
	SubRepo         subscription.Repository
	HistoryRepo     subscription.HistoryRepository
	UsageRepo       usage.Repository
}
