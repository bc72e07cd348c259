package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"directory-service/internal/auth"
	"directory-service/internal/entity"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUnknownRelation = errors.New("unknown relation")
)

// createScript writes the profile hash and clears stale relation lists, refusing to
// overwrite an existing profile.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'userID', ARGV[2], 'name', ARGV[3], 'email', ARGV[4], 'password', ARGV[5])
for i = 2, #KEYS do
	redis.call('DEL', KEYS[i])
end
return 1
`)

// appendScript pushes onto the relation list only while the profile hash exists.
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('RPUSH', KEYS[2], ARGV[1])
`)

// ProfileRepository stores user profiles in Redis. Each profile is a hash under user:<userID>
// and every relationship array is a list under userrel:<relation>:<userID>.
type ProfileRepository struct {
	rdb        *redis.Client
	hashParams *auth.HashParams
}

func NewProfileRepository(rdb *redis.Client) *ProfileRepository {
	return &ProfileRepository{rdb: rdb}
}

// WithHashParams overrides the credential hashing cost.
func (r *ProfileRepository) WithHashParams(params *auth.HashParams) *ProfileRepository {
	r.hashParams = params
	return r
}

// CreateUser hashes the credential and stores a new profile with empty relationships.
// It returns the generated stored id.
func (r *ProfileRepository) CreateUser(ctx context.Context, userID, name, email, rawCredential string) (string, error) {
	hash, err := auth.HashPassword(rawCredential, r.hashParams)
	if err != nil {
		return "", err
	}

	storedID := uuid.NewString()
	keys := []string{profileKey(userID)}
	for _, rel := range entity.Relations {
		keys = append(keys, relationKey(userID, rel))
	}

	created, err := createScript.Run(ctx, r.rdb, keys, storedID, userID, name, email, hash).Int64()
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", userID, err)
	}
	if created == 0 {
		return "", ErrUserExists
	}

	return storedID, nil
}

// FindByUserID loads a profile and its relationship arrays. The credential hash is only
// populated when includeCredential is true.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string, includeCredential bool) (*entity.UserProfile, bool, error) {
	fields, err := r.rdb.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("find user %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	profile := &entity.UserProfile{
		ID:     fields["id"],
		UserID: fields["userID"],
		Name:   fields["name"],
		Email:  fields["email"],
	}
	if includeCredential {
		profile.Password = fields["password"]
	}

	cmds := make(map[string]*redis.StringSliceCmd, len(entity.Relations))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rel := range entity.Relations {
			cmds[rel] = pipe.LRange(ctx, relationKey(userID, rel), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("find user %s relations: %w", userID, err)
	}

	for rel, cmd := range cmds {
		ids, err := parseIDs(cmd.Val())
		if err != nil {
			return nil, false, fmt.Errorf("find user %s %s: %w", userID, rel, err)
		}
		profile.SetRelation(rel, ids)
	}

	return profile, true, nil
}

// AppendReference appends foreignKey to the user's relation list. Repeated calls append
// duplicates. appended is false when no profile exists for userID.
func (r *ProfileRepository) AppendReference(ctx context.Context, userID, relation string, foreignKey int64) (bool, error) {
	if !entity.IsRelation(relation) {
		return false, fmt.Errorf("%w: %s", ErrUnknownRelation, relation)
	}

	n, err := appendScript.Run(ctx, r.rdb,
		[]string{profileKey(userID), relationKey(userID, relation)},
		foreignKey,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("append %s %d to user %s: %w", relation, foreignKey, userID, err)
	}
	return n >= 0, nil
}

// VerifyCredential reports whether rawCredential matches the stored hash.
func (r *ProfileRepository) VerifyCredential(rawCredential, storedHash string) bool {
	ok, err := auth.VerifyPassword(rawCredential, storedHash)
	return err == nil && ok
}

func (r *ProfileRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func profileKey(userID string) string {
	return "user:" + userID
}

// relationKey lives outside the user: prefix so no user id can name another user's list.
func relationKey(userID, relation string) string {
	return "userrel:" + relation + ":" + userID
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
