package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/recordlink/pkg/logging"
)

func TestContextFields(t *testing.T) {
	tests := []struct {
		name string
		with func(context.Context) context.Context
		want []string
		skip []string
	}{
		{
			name: "tenant",
			with: func(ctx context.Context) context.Context { return logging.WithTenant(ctx, "acme") },
			want: []string{`"tenant_id":"acme"`},
		},
		{
			name: "actor and record",
			with: func(ctx context.Context) context.Context {
				ctx = logging.WithActor(ctx, "u-7")
				return logging.WithRecord(ctx, "c-1")
			},
			want: []string{`"actor_id":"u-7"`, `"record_id":"c-1"`},
		},
		{
			name: "batch",
			with: func(ctx context.Context) context.Context { return logging.WithBatch(ctx, "batch_1_abc") },
			want: []string{`"batch_id":"batch_1_abc"`},
		},
		{
			name: "empty values are dropped",
			with: func(ctx context.Context) context.Context { return logging.WithActor(ctx, "") },
			skip: []string{"actor_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := logging.NewTestLogger(t)
			ctx := logging.WithLogger(context.Background(), tl.Logger)
			ctx = tt.with(ctx)

			logging.Ctx(ctx).Info().Msg("event")

			for _, w := range tt.want {
				tl.AssertContains(t, w)
			}
			for _, s := range tt.skip {
				tl.AssertNotContains(t, s)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRequestID(ctx, "req-1")

	assert.Equal(t, "req-1", logging.RequestID(ctx))
	assert.Empty(t, logging.RequestID(context.Background()))

	logging.Ctx(ctx).Info().Msg("handled")
	tl.AssertContains(t, `"request_id":"req-1"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.FromContext(logging.WithLogger(context.Background(), nil)))
}
