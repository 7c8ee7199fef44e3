package collect

import (
	"errors"
	"log/slog"

	"google.golang.org/api/googleapi"
)

// providerStatus returns the HTTP status of a Google API error, or 0 when
// the error did not come from the API (network, context, decoding).
func providerStatus(err error) int {
	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return googleErr.Code
	}
	return 0
}

func logProviderError(msg string, err error, args ...any) {
	args = append(args, "provider_status", providerStatus(err), "error", err)
	slog.Error(msg, args...)
}

func addPrefix(in []string, prefix string) []string {
	out := make([]string, len(in))
	for idx, str := range in {
		out[idx] = prefix + str
	}
	return out
}
