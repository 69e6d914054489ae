package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketapi/internal/models"
)

func TestMayViewOrderLine(t *testing.T) {
	buyer := primitive.NewObjectID()
	seller := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	line := models.SingleOrder{User: buyer, Seller: seller}

	t.Run("buyer sees own line", func(t *testing.T) {
		require.NoError(t, mayViewOrderLine(models.RoleUser, buyer, line))
	})

	t.Run("seller sees own line", func(t *testing.T) {
		require.NoError(t, mayViewOrderLine(models.RoleSeller, seller, line))
	})

	t.Run("admin and courier see any line", func(t *testing.T) {
		require.NoError(t, mayViewOrderLine(models.RoleAdmin, stranger, line))
		require.NoError(t, mayViewOrderLine(models.RoleCourier, stranger, line))
	})

	t.Run("unrelated user is forbidden", func(t *testing.T) {
		err := mayViewOrderLine(models.RoleUser, stranger, line)
		require.Error(t, err)
		require.Equal(t, http.StatusForbidden, statusOf(err))
	})

	t.Run("unrelated seller is forbidden", func(t *testing.T) {
		err := mayViewOrderLine(models.RoleSeller, stranger, line)
		require.Error(t, err)
		require.Equal(t, http.StatusForbidden, statusOf(err))
	})
}

func TestValidOrderStatus(t *testing.T) {
	for _, status := range []string{
		models.StatusPending, models.StatusFailed, models.StatusPaid,
		models.StatusDelivered, models.StatusCanceled,
	} {
		require.True(t, validOrderStatus(status), status)
	}
	require.False(t, validOrderStatus("shipped"))
	require.False(t, validOrderStatus(""))
}
