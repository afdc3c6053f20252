package middleware

// contextKey is a custom type for context keys to avoid collisions
type contextKey string
