package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfirmDeliveryCommand(t *testing.T) {
	loc, err := kernel.NewGeoPoint(-1.95, 30.06)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		cmd, err := commands.NewConfirmDeliveryCommand(
			kernel.NewUUID(), kernel.NewUUID(), "482915", "photo-1", "note", loc, time.Now())
		require.NoError(t, err)
		assert.NoError(t, cmd.Validate())
		assert.Equal(t, "482915", cmd.SubmittedCode())
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := commands.NewConfirmDeliveryCommand(
			kernel.NewUUID(), kernel.NewUUID(), "", "", "", loc, time.Now())
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("zero order id", func(t *testing.T) {
		_, err := commands.NewConfirmDeliveryCommand(
			kernel.UUID{}, kernel.NewUUID(), "482915", "", "", loc, time.Now())
		assert.Error(t, err)
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var cmd commands.ConfirmDeliveryCommand
		assert.ErrorIs(t, cmd.Validate(), commands.ErrConfirmDeliveryCommandIsNotConstructed)
	})
}

func TestNewTransitionOrderCommand_InvalidLocation(t *testing.T) {
	actor, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleAgent)
	require.NoError(t, err)

	bad := kernel.GeoPoint{} // not constructed
	_, err = commands.NewTransitionOrderCommand(
		kernel.NewUUID(), 1, actor, "", &bad, time.Now())
	assert.Error(t, err)
}
