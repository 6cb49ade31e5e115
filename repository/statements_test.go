/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/connectedoffice/database"
	"github.com/tomoncle/connectedoffice/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// newMockStore returns a PostgreSQL-flavoured store whose statements are
// checked by sqlmock.
func newMockStore(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestAddRangeIsOneStatement(t *testing.T) {
	db, mock := newMockStore(t)
	mock.ExpectExec(`^INSERT INTO "category" .* VALUES \(.*\), \(.*\), \(.*\)$`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := NewCategoryRepository(db).AddRange(context.Background(), []*models.Category{
		newCategory("Sensors"), newCategory("Cameras"), newCategory("Locks"),
	})
	require.NoError(t, err)
}

func TestRemoveRangeIsOneStatement(t *testing.T) {
	db, mock := newMockStore(t)
	a, b := newCategory("Sensors"), newCategory("Cameras")
	a.CategoryID, b.CategoryID = uuid.New(), uuid.New()

	mock.ExpectExec(`^DELETE FROM "category" .*`+a.CategoryID.String()+`.*`+b.CategoryID.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, NewCategoryRepository(db).RemoveRange(context.Background(), []*models.Category{a, b}))
}

func TestEmptyRangesSendNothing(t *testing.T) {
	db, _ := newMockStore(t)
	repo := NewCategoryRepository(db)

	assert.NoError(t, repo.AddRange(context.Background(), nil))
	assert.NoError(t, repo.RemoveRange(context.Background(), []*models.Category{}))
}

func TestUpdateWithoutMatchingRow(t *testing.T) {
	db, mock := newMockStore(t)
	c := newCategory("Sensors")
	c.CategoryID = uuid.New()

	mock.ExpectExec(`^UPDATE "category" .*WHERE .*`+c.CategoryID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewCategoryRepository(db).Update(context.Background(), c)
	assert.ErrorIs(t, err, database.ErrNoRowsAffected)
}

func TestStoreErrorsPropagateUnchanged(t *testing.T) {
	db, mock := newMockStore(t)
	boom := errors.New("connection refused")
	repo := NewCategoryRepository(db)

	mock.ExpectExec(`^INSERT INTO "category"`).WillReturnError(boom)
	assert.Same(t, boom, repo.Add(context.Background(), newCategory("Sensors")))

	mock.ExpectQuery(`^SELECT .* FROM "category"( AS "category")? WHERE \(category_name = 'Sensors'\)$`).WillReturnError(boom)
	_, err := repo.Find(context.Background(), WhereExpr[models.Category]("category_name = ?", "Sensors"))
	assert.Same(t, boom, err)
}

func TestGetByIdScansRow(t *testing.T) {
	db, mock := newMockStore(t)
	id := uuid.New()
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"category_id", "category_name", "category_description", "date_created"}).
		AddRow(id.String(), "Sensors", "Sensors devices", created)
	mock.ExpectQuery(`^SELECT .* FROM "category"( AS "category")? WHERE \("category"\."category_id" = '`+id.String()+`'\) LIMIT 1$`).
		WillReturnRows(rows)

	got, err := NewCategoryRepository(db).GetById(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.CategoryID)
	assert.Equal(t, "Sensors", got.CategoryName)
	assert.True(t, created.Equal(got.DateCreated))
}
