package scopedgrpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// TokenExtractor extracts a token id from the incoming metadata of ctx. An
// empty string means no credential was presented; extraction never fails.
type TokenExtractor func(ctx context.Context) string

// BearerMetadataExtractor reads "authorization: Bearer <id>". A value of any
// other form carries no token.
func BearerMetadataExtractor(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get("authorization")
	if len(values) == 0 || values[0] == "" {
		return ""
	}

	authParts := strings.Fields(values[0])
	if len(authParts) != 2 || !strings.EqualFold(authParts[0], "bearer") {
		return ""
	}
	return authParts[1]
}

// MetadataFieldExtractor reads the raw token id from the first value of a
// metadata field.
func MetadataFieldExtractor(field string) TokenExtractor {
	return func(ctx context.Context) string {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return ""
		}

		values := md.Get(field)
		if len(values) == 0 {
			return ""
		}
		return strings.TrimSpace(values[0])
	}
}

// MultiExtractor runs extractors in order and returns the first token found.
func MultiExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) string {
		for _, ex := range extractors {
			if id := ex(ctx); id != "" {
				return id
			}
		}
		return ""
	}
}
