package types

import (
	"context"
	"time"
)

// BaseModel carries the tenancy and audit columns shared by every persisted
// entity. Embed it; do not build these fields by hand.
type BaseModel struct {
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

// GetDefaultBaseModel stamps a fresh BaseModel from the request context
func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		TenantID:  GetTenantID(ctx),
		Status:    StatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: GetUserID(ctx),
		UpdatedBy: GetUserID(ctx),
	}
}

// Touch updates the audit fields ahead of a write
func (b *BaseModel) Touch(ctx context.Context) {
	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = GetUserID(ctx)
}
