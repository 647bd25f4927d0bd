package membership

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// MongoStore persists memberships in a MongoDB collection. The uniqueness
// invariant rides on a unique compound index over (project_id, user_id) and
// version checks are expressed as filtered updates, mirroring the
// compare-and-swap contract of the Postgres adapter.
type MongoStore struct {
	coll *mongo.Collection
}

// membershipDoc is the stored shape; the membership ID doubles as _id.
type membershipDoc struct {
	ID        string    `bson:"_id"`
	ProjectID string    `bson:"project_id"`
	UserID    string    `bson:"user_id"`
	Role      string    `bson:"role"`
	Version   int64     `bson:"version"`
	AddedBy   string    `bson:"added_by"`
	JoinedAt  time.Time `bson:"joined_at"`
}

func (d membershipDoc) toMembership() Membership {
	return Membership{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		UserID:    d.UserID,
		Role:      roles.ProjectRole(d.Role),
		Version:   d.Version,
		AddedBy:   d.AddedBy,
		JoinedAt:  d.JoinedAt,
	}
}

// NewMongoStore creates a store over the given database, using the
// "memberships" collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	if db == nil {
		panic("membership: mongo database cannot be nil")
	}
	return &MongoStore{coll: db.Collection("memberships")}
}

// EnsureIndexes creates the unique (project_id, user_id) index and the
// project listing index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "role", Value: 1}},
		},
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter any) (Membership, error) {
	var doc membershipDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, errors.Join(ErrStoreUnavailable, err)
	}
	return doc.toMembership(), nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Membership, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetByProjectAndUser(ctx context.Context, projectID, userID string) (Membership, error) {
	return s.findOne(ctx, bson.M{"project_id": projectID, "user_id": userID})
}

func (s *MongoStore) ListByProject(ctx context.Context, projectID string) ([]Membership, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []membershipDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	out := make([]Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toMembership())
	}
	return out, nil
}

func (s *MongoStore) CountByProjectAndRole(ctx context.Context, projectID string, role roles.ProjectRole) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"project_id": projectID, "role": string(role)})
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return count, nil
}

func (s *MongoStore) Create(ctx context.Context, m Membership) error {
	_, err := s.coll.InsertOne(ctx, membershipDoc{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Version:   m.Version,
		AddedBy:   m.AddedBy,
		JoinedAt:  m.JoinedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateMembership
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) UpdateIfVersion(ctx context.Context, id string, next Membership, expectedVersion int64) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "version": expectedVersion},
		bson.M{"$set": bson.M{"role": string(next.Role), "version": next.Version}})
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
