package mongodb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/user"
)

type userRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	FullName     string             `bson:"full_name"`
	StudentID    string             `bson:"student_id,omitempty"`
	Role         string             `bson:"role"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	PasswordHash []byte             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	LastLogin    time.Time          `bson:"last_login,omitempty"`
}

func newUserRecord(usr user.User) userRecord {
	return userRecord{
		Email:        strings.ToLower(usr.Email),
		FullName:     usr.FullName,
		StudentID:    usr.StudentID,
		Role:         string(usr.Role),
		AvatarURL:    usr.AvatarURL,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}
}

func (r userRecord) toUser() user.User {
	return user.User{
		ID:           r.ID.Hex(),
		Email:        r.Email,
		FullName:     r.FullName,
		StudentID:    r.StudentID,
		Role:         user.Role(r.Role),
		AvatarURL:    r.AvatarURL,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.UTC(),
	}
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{coll: db.collection(usersCollection)}
}

func (repo *userRepository) findOne(ctx context.Context, filter interface{}) (user.User, error) {
	var rec userRecord
	if err := repo.coll.FindOne(ctx, filter).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return rec.toUser(), nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	rec := newUserRecord(usr)
	rec.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, rec); err != nil {
		if isDuplicateKey(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return rec.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (repo *userRepository) QueryUsers(ctx context.Context, role user.Role) ([]user.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = string(role)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var recs []userRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(recs))
	for _, r := range recs {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	oid, ok := objectID(usr.ID)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	set := bson.M{
		"full_name":  usr.FullName,
		"student_id": usr.StudentID,
		"avatar_url": usr.AvatarURL,
		"role":       string(usr.Role),
		"last_login": usr.LastLogin,
		"updated_at": usr.UpdatedAt,
	}
	if usr.PasswordHash != nil {
		set["password_hash"] = usr.PasswordHash
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec userRecord
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&rec)
	if err != nil {
		if isNoDocuments(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return rec.toUser(), nil
}
