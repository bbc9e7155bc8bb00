package middleware

import "context"

type contextKey string

const ctxStaffCode contextKey = "staff_code"

// StaffCodeFromContext returns the desk operator code seeded by StaffCode.
func StaffCodeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaffCode).(string); ok {
		return v
	}
	return ""
}

// WithStaffCode injects the operator code into the context.
func WithStaffCode(ctx context.Context, code string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxStaffCode, code)
}
