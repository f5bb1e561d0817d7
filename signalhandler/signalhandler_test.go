package signalhandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOptimalProcs(t *testing.T) {
	assert.GreaterOrEqual(t, GetOptimalProcs(), 1)
}

func TestSetupHandlerFollowsParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := SetupHandler(parent)
	defer stop()

	assert.NoError(t, ctx.Err())
	cancelParent()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
