package handlers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketapi/internal/models"
)

// requesterMayMutate is the single ownership rule for mutating a
// user-owned resource: users and sellers may only touch their own
// documents, admins may touch anything.
func requesterMayMutate(role string, requesterID, ownerID primitive.ObjectID) error {
	switch role {
	case models.RoleUser:
		if requesterID != ownerID {
			return errForbidden("user id does not match")
		}
	case models.RoleSeller:
		if requesterID != ownerID {
			return errForbidden("seller id does not match")
		}
	}
	return nil
}
