package utils

import (
	"context"

	"github.com/mmdatafocus/voucher_desk/appctx"
)

var (
	ContextKeyTenantId       = appctx.ContextKeyTenantId
	ContextKeyUsername       = appctx.ContextKeyUsername
	ContextKeyUserRole       = appctx.ContextKeyUserRole
	ContextKeyCorrelationId  = appctx.ContextKeyCorrelationId
	ContextKeyPublicEndpoint = appctx.ContextKeyPublicEndpoint
)

func GetTenantIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyTenantId)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserRole)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTenantIdInContext(ctx context.Context, tenantId string) context.Context {
	return appctx.Set(ctx, ContextKeyTenantId, tenantId)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetUserRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyUserRole, role)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func IsPublicEndpointContext(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, ContextKeyPublicEndpoint)
	return ok && v
}

func SetPublicEndpointInContext(ctx context.Context) context.Context {
	return appctx.Set(ctx, ContextKeyPublicEndpoint, true)
}
