package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a listed entity row keyed by column name.
type Record map[string]interface{}

// Page is a single page of a listed collection.
type Page struct {
	Collection string
	Items      []Record
	PageNumber int
	TotalPages int
	PageSize   int
	TotalCount int
	Links      map[string]string
}

// MarshalJSON renders the list envelope, keying items by the collection name.
func (p *Page) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []Record{}
	}
	links := p.Links
	if links == nil {
		links = map[string]string{}
	}
	return json.Marshal(map[string]interface{}{
		p.Collection: items,
		"pageNumber": p.PageNumber,
		"totalPages": p.TotalPages,
		"pageSize":   p.PageSize,
		"totalCount": p.TotalCount,
		"links":      links,
	})
}

// Key renders a scalar field value as a stable string, so values decoded from JSON
// (float64) and values scanned from MySQL (int64, string) compare equal.
func Key(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

/*
MySQL schema:

CREATE TABLE businesses (
	id INT AUTO_INCREMENT PRIMARY KEY,
	ownerid VARCHAR(255) NOT NULL,
	name VARCHAR(255) NOT NULL,
	address VARCHAR(255) NOT NULL,
	city VARCHAR(255) NOT NULL,
	state CHAR(2) NOT NULL,
	zip CHAR(5) NOT NULL,
	phone CHAR(12) NOT NULL,
	category VARCHAR(255) NOT NULL,
	subcategory VARCHAR(255) NOT NULL,
	website VARCHAR(255),
	email VARCHAR(255),
	INDEX idx_ownerid (ownerid)
);

reviews(userid, businessid, dollars, stars, review), photos(userid, businessid, caption, data),
positions(applicantID, positionName, description, requirements, posted_date, city, state, salary, denied),
companies(companyName, description, glassdoorRating, website, sizeCategory, hqCity, hqState),
fields(fieldName, description, averageSalary, lowSalary, highSalary).
See migrations/migrations.go for the full definitions.
*/
