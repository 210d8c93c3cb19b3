package placeholder

import (
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/tinyconf/internal/resolver"
)

// Resolve replaces every prefix+"{name}" placeholder in value with the value
// returned by r. If any placeholder is unterminated, empty or unknown, a
// warning is logged and value is returned unchanged, including placeholders
// that were already resolved.
func Resolve(value string, r resolver.Resolver, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}

	open := r.Prefix() + "{"
	var builder strings.Builder
	position := 0

	for {
		index := strings.Index(value[position:], open)
		if index == -1 {
			break
		}
		index += position
		builder.WriteString(value[position:index])

		start := index + len(open)
		end := strings.IndexByte(value[start:], '}')
		if end == -1 {
			logger.Warn("closing curly bracket is missing", zap.String("value", value))
			return value
		}
		end += start

		name := value[start:end]
		if name == "" {
			logger.Warn("empty variable names cannot be resolved", zap.String("value", value))
			return value
		}

		data, ok := r.Resolve(name)
		if !ok {
			logger.Warn("variable could not be found",
				zap.String("name", name),
				zap.String("resolver", r.Name()),
			)
			return value
		}
		builder.WriteString(data)

		position = end + 1
	}

	builder.WriteString(value[position:])
	return builder.String()
}

// Expand applies the resolvers in order, each on the output of the previous.
func Expand(value string, resolvers []resolver.Resolver, logger *zap.Logger) string {
	for _, r := range resolvers {
		value = Resolve(value, r, logger)
	}
	return value
}
