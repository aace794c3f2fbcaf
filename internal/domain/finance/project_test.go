package finance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProjectDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("empty list knows every project", func(t *testing.T) {
		dir := NewStaticProjectDirectory(nil)
		ok, err := dir.Exists(ctx, "anything")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		dir := NewStaticProjectDirectory([]string{"Website Revamp", " Data Platform ", ""})
		ok, _ := dir.Exists(ctx, "website revamp")
		assert.True(t, ok)
		ok, _ = dir.Exists(ctx, "Data Platform")
		assert.True(t, ok)
		ok, _ = dir.Exists(ctx, "General")
		assert.False(t, ok)
	})
}
