package handlers

import (
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketapi/internal/models"
)

func TestRequesterMayMutateMismatchedUserIsForbidden(t *testing.T) {
	requester := primitive.NewObjectID()
	owner := primitive.NewObjectID()

	for _, role := range []string{models.RoleUser, models.RoleSeller} {
		err := requesterMayMutate(role, requester, owner)
		if err == nil {
			t.Fatalf("expected %s with mismatched ids to be rejected", role)
		}
		if statusOf(err) != http.StatusForbidden {
			t.Fatalf("expected 403 for %s, got %d", role, statusOf(err))
		}
	}
}

func TestRequesterMayMutateOwnerPasses(t *testing.T) {
	id := primitive.NewObjectID()
	for _, role := range []string{models.RoleUser, models.RoleSeller} {
		if err := requesterMayMutate(role, id, id); err != nil {
			t.Fatalf("expected %s to mutate own resource, got %v", role, err)
		}
	}
}

func TestRequesterMayMutateAdminAlwaysPasses(t *testing.T) {
	if err := requesterMayMutate(models.RoleAdmin, primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatalf("expected admin to pass regardless of ids, got %v", err)
	}
}

func TestRequesterMayMutateOtherRolesPass(t *testing.T) {
	if err := requesterMayMutate(models.RoleCourier, primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatalf("expected courier to pass, got %v", err)
	}
}
