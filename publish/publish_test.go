package publish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// stubPublisher is a configurable publisher for framework tests.
type stubPublisher struct {
	NoRollback

	name          string
	shouldPublish bool
	publishResult Result
	verifyAfter   int // Verify returns true once called this many times
	verifyCalls   int
	publishCalls  int
}

func (s *stubPublisher) Name() string        { return s.name }
func (s *stubPublisher) DisplayName() string { return "Stub " + s.name }
func (s *stubPublisher) Registry() string    { return s.name + ".example.com" }

func (s *stubPublisher) ShouldPublish(ctx context.Context, pctx *Context) bool {
	return s.shouldPublish
}

func (s *stubPublisher) Publish(ctx context.Context, pctx *Context) Result {
	s.publishCalls++
	return s.publishResult
}

func (s *stubPublisher) Verify(ctx context.Context, pctx *Context) bool {
	s.verifyCalls++
	return s.verifyCalls > s.verifyAfter
}

func TestRegistryRegister(t *testing.T) {
	t.Run("rejects nil", func(t *testing.T) {
		r := NewRegistry()

		err := r.Register(nil)

		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("rejects missing name", func(t *testing.T) {
		r := NewRegistry()

		err := r.Register(&stubPublisher{})

		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("same implementation twice is a no-op", func(t *testing.T) {
		r := NewRegistry()
		p := &stubPublisher{name: "crates"}

		require.NoError(t, r.Register(p))
		require.NoError(t, r.Register(p))

		assert.Equal(t, []string{"crates"}, r.Names())
	})

	t.Run("different implementation under same name fails", func(t *testing.T) {
		r := NewRegistry()

		require.NoError(t, r.Register(&stubPublisher{name: "crates"}))
		err := r.Register(&stubPublisher{name: "crates"})

		require.Error(t, err)
		assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))
	})
}

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry()
	crates := &stubPublisher{name: "crates"}
	npm := &stubPublisher{name: "npm"}
	r.MustRegister(crates)
	r.MustRegister(npm)

	t.Run("returns publishers in requested order", func(t *testing.T) {
		got, err := r.Select([]string{"npm", "crates"})

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Same(t, npm, got[0])
		assert.Same(t, crates, got[1])
	})

	t.Run("unknown name errors", func(t *testing.T) {
		_, err := r.Select([]string{"crates", "homebrew"})

		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})
}

func TestPublishAll(t *testing.T) {
	pctx := &Context{Version: "1.2.3"}

	t.Run("runs applicable publishers in order", func(t *testing.T) {
		first := &stubPublisher{name: "first", shouldPublish: true, publishResult: Success("ok")}
		skipped := &stubPublisher{name: "skipped", shouldPublish: false}
		second := &stubPublisher{name: "second", shouldPublish: true, publishResult: Success("ok")}

		results := PublishAll(context.Background(), []Publisher{first, skipped, second}, pctx, nil)

		require.Len(t, results, 2)
		assert.Equal(t, "first", results[0].Name)
		assert.Equal(t, "second", results[1].Name)
		assert.Equal(t, "1.2.3", results[0].Version)
		assert.Zero(t, skipped.publishCalls)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		failing := &stubPublisher{name: "failing", shouldPublish: true, publishResult: Failed("bad")}
		after := &stubPublisher{name: "after", shouldPublish: true, publishResult: Success("ok")}

		results := PublishAll(context.Background(), []Publisher{failing, after}, pctx, nil)

		require.Len(t, results, 1)
		assert.True(t, results[0].Failed())
		assert.Zero(t, after.publishCalls)
	})
}

func TestNoRollback(t *testing.T) {
	p := &stubPublisher{name: "append-only"}

	assert.False(t, p.CanRollback())

	result := p.Rollback(context.Background(), &Context{})
	assert.Equal(t, StatusSkipped, result.Status)
}
