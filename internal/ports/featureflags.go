package ports

import "context"

// Flags read by the application.
const (
	// FlagQuoteImport gates quote import from the upstream provider.
	FlagQuoteImport = "quote-import"

	// FlagFeedDefaultLimit is the activity feed size used when the caller
	// does not ask for one.
	FlagFeedDefaultLimit = "activity-feed-default-limit"
)

// FeatureFlags evaluates flags for the caller carried in ctx. A missing
// flag or a value of the wrong type yields def.
type FeatureFlags interface {
	IsEnabled(ctx context.Context, flag string, def bool) bool
	GetInt(ctx context.Context, flag string, def int) int
}

// FlagSubject is who a flag is evaluated for. The zero value is anonymous.
type FlagSubject struct {
	UserID   string
	Username string
}

// Anonymous reports whether no user is signed in.
func (s FlagSubject) Anonymous() bool { return s.UserID == "" }

type flagSubjectKey struct{}

// WithFlagSubject attaches the flag subject to ctx.
func WithFlagSubject(ctx context.Context, s FlagSubject) context.Context {
	return context.WithValue(ctx, flagSubjectKey{}, s)
}

// FlagSubjectFrom returns the subject in ctx, anonymous when unset.
func FlagSubjectFrom(ctx context.Context) FlagSubject {
	s, _ := ctx.Value(flagSubjectKey{}).(FlagSubject)
	return s
}
