package store

import (
	"regexp"
	"time"

	"clean-street/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func userQuery(f UserFilter) bson.M {
	query := bson.M{}
	if f.Role != "" {
		query["role"] = f.Role
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		query["$or"] = []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return query
}

func complaintQuery(f ComplaintFilter) bson.M {
	query := bson.M{}
	if f.OwnerID != nil {
		query["user_id"] = *f.OwnerID
	}
	if f.AssignedTo != nil {
		query["assigned_to"] = *f.AssignedTo
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if f.Priority != "" {
		query["priority"] = f.Priority
	}
	return query
}

func nearQuery(q NearQuery) bson.M {
	query := bson.M{
		"location_coords": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": q.Point.Coordinates,
				},
				"$maxDistance": q.MaxDistance,
			},
		},
	}
	if len(q.Statuses) > 0 {
		query["status"] = bson.M{"$in": q.Statuses}
	}
	return query
}

func patchUpdate(patch models.ComplaintPatch, now time.Time) bson.M {
	return bson.M{"$set": bson.M(patch.Fields(now))}
}

// stampedVoteUpdate is voteUpdate that also bumps the complaint's
// updated_at.
func stampedVoteUpdate(upField, downField string, userID interface{}, vote models.Vote, now time.Time) bson.M {
	update := voteUpdate(upField, downField, userID, vote)
	update["$set"] = bson.M{"updated_at": now}
	return update
}

// voteUpdate moves userID into the array matching vote and out of the other.
func voteUpdate(upField, downField string, userID interface{}, vote models.Vote) bson.M {
	switch vote {
	case models.VoteUp:
		return bson.M{
			"$addToSet": bson.M{upField: userID},
			"$pull":     bson.M{downField: userID},
		}
	case models.VoteDown:
		return bson.M{
			"$addToSet": bson.M{downField: userID},
			"$pull":     bson.M{upField: userID},
		}
	default:
		return bson.M{
			"$pull": bson.M{upField: userID, downField: userID},
		}
	}
}

// roleBackfill repairs accounts whose role is missing or not one of the
// known lowercase values. Upper-case legacy values are lowered first so
// "ADMIN" survives as "admin"; anything still unknown becomes "user".
func roleBackfill() (bson.M, bson.A) {
	roles := bson.A{}
	for _, r := range models.AllRoles() {
		roles = append(roles, string(r))
	}

	filter := bson.M{"role": bson.M{"$nin": roles}}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"role": bson.M{"$toLower": bson.M{"$ifNull": bson.A{"$role", ""}}},
		}},
		bson.M{"$set": bson.M{
			"role": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{"$role", roles}},
				"$role",
				string(models.RoleUser),
			}},
		}},
	}
	return filter, pipeline
}
