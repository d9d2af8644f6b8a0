package vertex

import (
	"context"

	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/fixedpoint"
)

// encodeParam converts a configuration parameter, logging when it had to be
// saturated.
func encodeParam(ctx context.Context, codec fixedpoint.Codec, label, field string, v float64) int32 {
	q, saturated := codec.Encode(v)
	if saturated {
		ctxlog.FromContext(ctx).Warn("Parameter out of fixed-point range, saturated.",
			"vertex", label,
			"field", field,
			"value", v,
			"encoded", codec.Decode(q),
		)
	}
	return q
}

// encodeHyper converts a hyper-parameter to its 16-bit form. Wrapping is
// expected for out-of-range values, so it is only noted at debug level.
func encodeHyper(ctx context.Context, label, field string, v float64) uint16 {
	if !fixedpoint.ShortFprealFits(v) {
		ctxlog.FromContext(ctx).Debug("Hyper-parameter wraps in 16-bit fixed point.",
			"vertex", label,
			"field", field,
			"value", v,
		)
	}
	return fixedpoint.ShortFpreal(v)
}
