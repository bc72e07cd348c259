package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directory-service/internal/entity"
)

var reviewColumns = []string{"userid", "businessid", "dollars", "stars", "review"}

func newMockRepo(t *testing.T, table string, columns []string) (*ResourceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewResourceRepository(sqlx.NewDb(db, "sqlmock"), table, columns), mock
}

func TestCount(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS count FROM `reviews`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPageClampsBeyondLastPage(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `reviews` ORDER BY id LIMIT ?, ?")).
		WithArgs(20, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userid", "stars"}).
			AddRow(int64(21), []byte("u1"), int64(4)).
			AddRow(int64(22), []byte("u2"), int64(5)))

	page, err := repo.ListPage(context.Background(), 7, 22)
	require.NoError(t, err)

	assert.Equal(t, "reviews", page.Collection)
	assert.Equal(t, 3, page.PageNumber)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 22, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "u1", page.Items[0]["userid"])
	assert.Equal(t, int64(21), page.Items[0]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPageEmptyTable(t *testing.T) {
	repo, mock := newMockRepo(t, "fields", []string{"fieldName"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `fields` ORDER BY id LIMIT ?, ?")).
		WithArgs(0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fieldName"}))

	page, err := repo.ListPage(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Items)
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	query := regexp.QuoteMeta("SELECT * FROM `reviews` WHERE id = ?")

	mock.ExpectQuery(query).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userid", "review"}).AddRow(int64(3), []byte("u1"), []byte("great")))
	mock.ExpectQuery(query).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userid", "review"}))

	rec, found, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entity.Record{"id": int64(3), "userid": "u1", "review": "great"}, rec)

	rec, found, err = repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDError(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `reviews` WHERE id = ?")).
		WillReturnError(errors.New("connection reset"))

	_, found, err := repo.GetByID(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestInsertUsesOnlyKnownColumns(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `reviews` (`userid`, `businessid`, `dollars`, `stars`) VALUES (?, ?, ?, ?)")).
		WithArgs("u1", 7.0, 2.0, 4.0).
		WillReturnResult(sqlmock.NewResult(15, 1))

	id, err := repo.Insert(context.Background(), entity.Record{
		"id":         99.0,
		"userid":     "u1",
		"businessid": 7.0,
		"dollars":    2.0,
		"stars":      4.0,
		"bogus":      "x",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSetsEveryColumn(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	query := regexp.QuoteMeta("UPDATE `reviews` SET `userid` = ?, `businessid` = ?, `dollars` = ?, `stars` = ?, `review` = ? WHERE id = ?")

	mock.ExpectExec(query).
		WithArgs("u1", 7.0, 1.0, 3.0, nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WithArgs("u1", 7.0, 1.0, 3.0, nil, int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	fields := entity.Record{"userid": "u1", "businessid": 7.0, "dollars": 1.0, "stars": 3.0}

	ok, err := repo.Replace(context.Background(), 5, fields)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Replace(context.Background(), 6, fields)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByID(t *testing.T) {
	repo, mock := newMockRepo(t, "photos", []string{"userid", "businessid", "caption", "data"})
	query := regexp.QuoteMeta("DELETE FROM `photos` WHERE id = ?")
	mock.ExpectExec(query).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeleteByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBy(t *testing.T) {
	repo, mock := newMockRepo(t, "photos", []string{"userid", "businessid", "caption", "data"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `photos` WHERE `businessid` = ? ORDER BY id")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "businessid"}).AddRow(int64(1), int64(9)).AddRow(int64(4), int64(9)))

	items, err := repo.ListBy(context.Background(), "businessid", int64(9))
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountWhere(t *testing.T) {
	repo, mock := newMockRepo(t, "reviews", reviewColumns)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS count FROM `reviews` WHERE `businessid` = ? AND `userid` = ?")).
		WithArgs(7.0, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountWhere(context.Background(), entity.Record{"userid": "u1", "businessid": 7.0})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
