package service

import (
	"context"
	"fmt"
	"os"

	"directory-service/internal/entity"
	"directory-service/internal/pagination"
	"directory-service/internal/schema"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ResourceStore is the relational storage behind one listed entity type.
type ResourceStore interface {
	Count(ctx context.Context) (int, error)
	ListPage(ctx context.Context, requestedPage, totalCount int) (*entity.Page, error)
	GetByID(ctx context.Context, id int64) (entity.Record, bool, error)
	Insert(ctx context.Context, fields entity.Record) (int64, error)
	Replace(ctx context.Context, id int64, fields entity.Record) (bool, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	ListBy(ctx context.Context, column string, value interface{}) ([]entity.Record, error)
	CountWhere(ctx context.Context, equals entity.Record) (int, error)
}

// ProfileStore is the document storage for user profiles.
type ProfileStore interface {
	CreateUser(ctx context.Context, userID, name, email, rawCredential string) (string, error)
	FindByUserID(ctx context.Context, userID string, includeCredential bool) (*entity.UserProfile, bool, error)
	AppendReference(ctx context.Context, userID, relation string, foreignKey int64) (bool, error)
	VerifyCredential(rawCredential, storedHash string) bool
}

// ResourceService runs the CRUD workflow for one listed entity type.
type ResourceService struct {
	desc     Descriptor
	store    ResourceStore
	profiles ProfileStore
	linker   *Linker
	children map[string]ResourceStore
}

// NewResourceService creates a ResourceService. children holds the stores named by the
// descriptor's compositions, keyed by collection.
func NewResourceService(desc Descriptor, store ResourceStore, profiles ProfileStore, linker *Linker, children map[string]ResourceStore) *ResourceService {
	return &ResourceService{
		desc:     desc,
		store:    store,
		profiles: profiles,
		linker:   linker,
		children: children,
	}
}

func (s *ResourceService) Descriptor() Descriptor {
	return s.desc
}

// List returns the requested page, clamped into range, with navigation links.
func (s *ResourceService) List(ctx context.Context, requestedPage int) (*entity.Page, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		logger.Error().Err(err).Msgf("Error counting %s", s.desc.Collection)
		return nil, err
	}

	page, err := s.store.ListPage(ctx, requestedPage, total)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing %s", s.desc.Collection)
		return nil, err
	}
	page.Collection = s.desc.Collection
	page.Links = pagination.Links("/"+s.desc.Collection, page.PageNumber, page.TotalPages)
	return page, nil
}

// Get returns a single resource, with its composed child collections.
func (s *ResourceService) Get(ctx context.Context, id int64) (entity.Record, error) {
	rec, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting %s %d", s.desc.Name, id)
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	for _, comp := range s.desc.Compose {
		child, ok := s.children[comp.Collection]
		if !ok {
			return nil, fmt.Errorf("no store for %s composition %s", s.desc.Name, comp.Collection)
		}
		items, err := child.ListBy(ctx, comp.ForeignKey, id)
		if err != nil {
			logger.Error().Err(err).Msgf("Error getting %s of %s %d", comp.Collection, s.desc.Name, id)
			return nil, err
		}
		rec[comp.Collection] = items
	}
	return rec, nil
}

// Create validates body, inserts it and links the new id into the owner's profile.
func (s *ResourceService) Create(ctx context.Context, body map[string]interface{}) (int64, map[string]string, error) {
	if !schema.Validate(body, s.desc.Schema) {
		return 0, nil, ErrValidation
	}
	fields := entity.Record(schema.ExtractValidFields(body, s.desc.Schema))

	var ownerID string
	if s.desc.Owner != nil {
		ownerID = entity.Key(fields[s.desc.Owner.Field])
		if s.desc.Owner.MustExist {
			_, found, err := s.profiles.FindByUserID(ctx, ownerID, false)
			if err != nil {
				logger.Error().Err(err).Msgf("Error looking up owner %s", ownerID)
				return 0, nil, err
			}
			if !found {
				return 0, nil, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
			}
		}
	}

	if len(s.desc.Unique) > 0 {
		equals := entity.Record{}
		for _, f := range s.desc.Unique {
			equals[f] = fields[f]
		}
		count, err := s.store.CountWhere(ctx, equals)
		if err != nil {
			logger.Error().Err(err).Msgf("Error checking %s uniqueness", s.desc.Name)
			return 0, nil, err
		}
		if count > 0 {
			return 0, nil, ErrDuplicate
		}
	}

	id, err := s.store.Insert(ctx, fields)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating %s", s.desc.Name)
		return 0, nil, err
	}

	if s.desc.Owner != nil && s.linker != nil {
		s.linker.Link(ctx, ownerID, s.desc.Owner.Relation, id)
	}

	return id, s.desc.Links(id, fields), nil
}

// Replace overwrites resource id with body. Linkage fields must match the stored row.
func (s *ResourceService) Replace(ctx context.Context, id int64, body map[string]interface{}) (map[string]string, error) {
	if !schema.Validate(body, s.desc.Schema) {
		return nil, ErrValidation
	}
	fields := entity.Record(schema.ExtractValidFields(body, s.desc.Schema))

	if len(s.desc.Linkage) > 0 {
		existing, found, err := s.store.GetByID(ctx, id)
		if err != nil {
			logger.Error().Err(err).Msgf("Error getting %s %d", s.desc.Name, id)
			return nil, err
		}
		if !found {
			return nil, ErrNotFound
		}
		for _, f := range s.desc.Linkage {
			if entity.Key(existing[f]) != entity.Key(fields[f]) {
				return nil, fmt.Errorf("%w: %s", ErrOwnershipMismatch, f)
			}
		}
	}

	replaced, err := s.store.Replace(ctx, id, fields)
	if err != nil {
		logger.Error().Err(err).Msgf("Error replacing %s %d", s.desc.Name, id)
		return nil, err
	}
	if !replaced {
		return nil, ErrNotFound
	}
	return s.desc.Links(id, fields), nil
}

func (s *ResourceService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting %s %d", s.desc.Name, id)
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns every resource whose owner field equals userID.
func (s *ResourceService) ListByOwner(ctx context.Context, userID string) ([]entity.Record, error) {
	if s.desc.Owner == nil {
		return nil, fmt.Errorf("%s has no owner", s.desc.Name)
	}
	items, err := s.store.ListBy(ctx, s.desc.Owner.Field, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing %s of user %s", s.desc.Collection, userID)
		return nil, err
	}
	return items, nil
}
