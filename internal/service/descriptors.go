package service

import (
	"fmt"

	"directory-service/internal/entity"
	"directory-service/internal/schema"
)

// Owner ties a resource to the profile relation that records it.
type Owner struct {
	Field     string
	Relation  string
	MustExist bool
}

// Composition attaches the rows of another collection, matched by ForeignKey, to a single fetch.
type Composition struct {
	Collection string
	ForeignKey string
}

// Descriptor is the static description of one listed entity type.
type Descriptor struct {
	Name       string
	Collection string
	Table      string
	Schema     schema.Schema
	Owner      *Owner
	// Linkage fields must be unchanged by a replace.
	Linkage []string
	// Unique fields are checked together for an existing row before insert.
	Unique           []string
	DuplicateMessage string
	Compose          []Composition
	Links            func(id int64, rec entity.Record) map[string]string
}

func selfLink(name, collection string) func(int64, entity.Record) map[string]string {
	return func(id int64, _ entity.Record) map[string]string {
		return map[string]string{name: fmt.Sprintf("/%s/%d", collection, id)}
	}
}

func businessChildLinks(name, collection string) func(int64, entity.Record) map[string]string {
	return func(id int64, rec entity.Record) map[string]string {
		return map[string]string{
			name:       fmt.Sprintf("/%s/%d", collection, id),
			"business": "/businesses/" + entity.Key(rec["businessid"]),
		}
	}
}

var (
	BusinessDescriptor = Descriptor{
		Name:       "business",
		Collection: "businesses",
		Table:      "businesses",
		Schema: schema.Schema{
			{Name: "ownerid", Required: true},
			{Name: "name", Required: true},
			{Name: "address", Required: true},
			{Name: "city", Required: true},
			{Name: "state", Required: true},
			{Name: "zip", Required: true},
			{Name: "phone", Required: true},
			{Name: "category", Required: true},
			{Name: "subcategory", Required: true},
			{Name: "website"},
			{Name: "email"},
		},
		Owner: &Owner{Field: "ownerid", Relation: entity.RelationBusinesses, MustExist: true},
		Compose: []Composition{
			{Collection: "reviews", ForeignKey: "businessid"},
			{Collection: "photos", ForeignKey: "businessid"},
		},
		Links: selfLink("business", "businesses"),
	}

	ReviewDescriptor = Descriptor{
		Name:       "review",
		Collection: "reviews",
		Table:      "reviews",
		Schema: schema.Schema{
			{Name: "userid", Required: true},
			{Name: "businessid", Required: true},
			{Name: "dollars", Required: true},
			{Name: "stars", Required: true},
			{Name: "review"},
		},
		Owner:            &Owner{Field: "userid", Relation: entity.RelationReviews},
		Linkage:          []string{"userid", "businessid"},
		Unique:           []string{"userid", "businessid"},
		DuplicateMessage: "User has already posted a review of this business",
		Links:            businessChildLinks("review", "reviews"),
	}

	PhotoDescriptor = Descriptor{
		Name:       "photo",
		Collection: "photos",
		Table:      "photos",
		Schema: schema.Schema{
			{Name: "userid", Required: true},
			{Name: "businessid", Required: true},
			{Name: "caption"},
			{Name: "data", Required: true},
		},
		Owner:   &Owner{Field: "userid", Relation: entity.RelationPhotos},
		Linkage: []string{"userid", "businessid"},
		Links:   businessChildLinks("photo", "photos"),
	}

	PositionDescriptor = Descriptor{
		Name:       "position",
		Collection: "positions",
		Table:      "positions",
		Schema: schema.Schema{
			{Name: "applicantID", Required: true},
			{Name: "positionName", Required: true},
			{Name: "description", Required: true},
			{Name: "requirements"},
			{Name: "posted_date", Required: true},
			{Name: "city", Required: true},
			{Name: "state", Required: true},
			{Name: "salary"},
			{Name: "denied"},
		},
		Owner: &Owner{Field: "applicantID", Relation: entity.RelationPositions, MustExist: true},
		Links: selfLink("position", "positions"),
	}

	CompanyDescriptor = Descriptor{
		Name:       "company",
		Collection: "companies",
		Table:      "companies",
		Schema: schema.Schema{
			{Name: "companyName", Required: true},
			{Name: "description"},
			{Name: "glassdoorRating", Required: true},
			{Name: "website"},
			{Name: "sizeCategory", Required: true},
			{Name: "hqCity", Required: true},
			{Name: "hqState", Required: true},
		},
		Links: selfLink("company", "companies"),
	}

	FieldDescriptor = Descriptor{
		Name:       "field",
		Collection: "fields",
		Table:      "fields",
		Schema: schema.Schema{
			{Name: "fieldName", Required: true},
			{Name: "description"},
			{Name: "averageSalary", Required: true},
			{Name: "lowSalary", Required: true},
			{Name: "highSalary", Required: true},
		},
		Links: selfLink("field", "fields"),
	}
)

// Descriptors returns every listed entity type in route registration order.
func Descriptors() []Descriptor {
	return []Descriptor{
		BusinessDescriptor,
		ReviewDescriptor,
		PhotoDescriptor,
		PositionDescriptor,
		CompanyDescriptor,
		FieldDescriptor,
	}
}
