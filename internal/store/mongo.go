package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/illegalcall/mentor-tracker/internal/models"
)

var bsonNames = map[models.Field]string{
	models.FieldID:           "_id",
	models.FieldEmail:        "email",
	models.FieldFullName:     "fullName",
	models.FieldAccountType:  "accountType",
	models.FieldMentorName:   "mentorName",
	models.FieldFunFacts:     "funFacts",
	models.FieldPoints:       "points",
	models.FieldProfilePic:   "profilePic",
	models.FieldPasswordHash: "password",
}

// profileDoc is the stored shape of a profile document.
type profileDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	FullName    string             `bson:"fullName"`
	AccountType string             `bson:"accountType"`
	MentorName  string             `bson:"mentorName,omitempty"`
	FunFacts    string             `bson:"funFacts,omitempty"`
	Points      int                `bson:"points"`
	ProfilePic  string             `bson:"profilePic,omitempty"`
	Password    string             `bson:"password,omitempty"`
}

func (d profileDoc) toProfile() models.Profile {
	return models.Profile{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		FullName:     d.FullName,
		AccountType:  d.AccountType,
		MentorName:   d.MentorName,
		FunFacts:     d.FunFacts,
		Points:       d.Points,
		ProfilePic:   d.ProfilePic,
		PasswordHash: d.Password,
	}
}

// MongoAccessor keeps profiles as documents of one collection.
type MongoAccessor struct {
	coll *mongo.Collection
}

func NewMongoAccessor(coll *mongo.Collection) *MongoAccessor {
	return &MongoAccessor{coll: coll}
}

// CreateIndexes enforces email uniqueness and indexes the group and role
// lookups.
func (a *MongoAccessor) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "mentorName", Value: 1}}},
		{Keys: bson.D{{Key: "accountType", Value: 1}}},
	}
	if _, err := a.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes for %s: %w", a.coll.Name(), err)
	}

	slog.Info("✅ Profile indexes are ready!", "collection", a.coll.Name())
	return nil
}

func (a *MongoAccessor) FindOne(ctx context.Context, filter Filter) (models.Profile, error) {
	f, err := bsonFilter(filter)
	if err != nil {
		return models.Profile{}, err
	}

	var doc profileDoc
	if err := a.coll.FindOne(ctx, f).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("failed to find profile: %w", err)
	}
	return doc.toProfile(), nil
}

func (a *MongoAccessor) FindMany(ctx context.Context, filter Filter) iter.Seq2[models.Profile, error] {
	f, err := bsonFilter(filter)
	if err != nil {
		return failed(err)
	}

	return func(yield func(models.Profile, error) bool) {
		cursor, err := a.coll.Find(ctx, f)
		if err != nil {
			yield(models.Profile{}, fmt.Errorf("failed to query profiles: %w", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var doc profileDoc
			if err := cursor.Decode(&doc); err != nil {
				yield(models.Profile{}, fmt.Errorf("failed to decode profile: %w", err))
				return
			}
			if !yield(doc.toProfile(), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(models.Profile{}, fmt.Errorf("failed to iterate profiles: %w", err))
		}
	}
}

func (a *MongoAccessor) UpdateOneReturningNew(ctx context.Context, filter Filter, set []models.Assignment) (models.Profile, error) {
	if len(filter) == 0 {
		return models.Profile{}, ErrEmptyFilter
	}
	if len(set) == 0 {
		return models.Profile{}, fmt.Errorf("empty update set")
	}

	f, err := bsonFilter(filter)
	if err != nil {
		return models.Profile{}, err
	}

	fields := bson.D{}
	for _, s := range set {
		name, ok := bsonNames[s.Field]
		if !ok || s.Field == models.FieldID || s.Field == models.FieldPoints {
			return models.Profile{}, fmt.Errorf("%w: %s", ErrUnsupportedField, s.Field)
		}
		fields = append(fields, bson.E{Key: name, Value: s.Value})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDoc
	err = a.coll.FindOneAndUpdate(ctx, f, bson.D{{Key: "$set", Value: fields}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Profile{}, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return models.Profile{}, ErrDuplicate
		}
		return models.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return doc.toProfile(), nil
}

func (a *MongoAccessor) IncrementField(ctx context.Context, filter Filter, field models.Field, delta int) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	if field != models.FieldPoints {
		return 0, fmt.Errorf("%w: %s is not a counter", ErrUnsupportedField, field)
	}

	f, err := bsonFilter(filter)
	if err != nil {
		return 0, err
	}

	res, err := a.coll.UpdateOne(ctx, f, bson.M{"$inc": bson.M{bsonNames[field]: delta}})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return res.ModifiedCount, nil
}

func (a *MongoAccessor) InsertOne(ctx context.Context, p models.Profile) (models.Profile, error) {
	doc := profileDoc{
		Email:       p.Email,
		FullName:    p.FullName,
		AccountType: p.AccountType,
		MentorName:  p.MentorName,
		FunFacts:    p.FunFacts,
		Points:      p.Points,
		ProfilePic:  p.ProfilePic,
		Password:    p.PasswordHash,
	}

	res, err := a.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Profile{}, ErrDuplicate
		}
		return models.Profile{}, fmt.Errorf("failed to insert profile: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.Profile{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	p.ID = id.Hex()
	return p, nil
}

func (a *MongoAccessor) Ping(ctx context.Context) error {
	return a.coll.Database().Client().Ping(ctx, nil)
}

// bsonFilter translates filter into a query document. An id that is not a
// valid ObjectID cannot match anything and is reported as ErrNotFound.
func bsonFilter(filter Filter) (bson.D, error) {
	f := bson.D{}
	for _, c := range filter {
		name, ok := bsonNames[c.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedField, c.Field)
		}

		value := c.Value
		if c.Field == models.FieldID {
			hex, _ := c.Value.(string)
			oid, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return nil, ErrNotFound
			}
			value = oid
		}
		f = append(f, bson.E{Key: name, Value: value})
	}
	return f, nil
}
