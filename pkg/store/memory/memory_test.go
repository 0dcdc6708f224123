package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/store"
	"github.com/agentstation/recordlink/pkg/store/memory"
	"github.com/agentstation/recordlink/pkg/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestLen(t *testing.T) {
	s := memory.New()
	assert.Equal(t, 0, s.Len("records"))

	_, err := s.Add(context.Background(), "records", store.Document{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len("records"))
}
