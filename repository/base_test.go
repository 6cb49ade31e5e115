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
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/connectedoffice/database"
	"github.com/tomoncle/connectedoffice/models"
	"github.com/tomoncle/connectedoffice/types"
)

func TestAddThenGetById(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	sensors := newCategory("Sensors")
	require.NoError(t, repo.Add(ctx, sensors))
	require.NotEqual(t, uuid.Nil, sensors.CategoryID)

	got, err := repo.GetById(ctx, sensors.CategoryID)
	require.NoError(t, err)
	requireSameCategory(t, sensors, got)
}

func TestAddAssignsCreationTime(t *testing.T) {
	ctx := context.Background()
	repo := NewZoneRepository(openStore(t))

	lobby := &models.Zone{ZoneName: "Lobby"}
	require.NoError(t, repo.Add(ctx, lobby))
	assert.NotEqual(t, uuid.Nil, lobby.ZoneID)
	assert.False(t, lobby.DateCreated.IsZero())
}

func TestGetByIdAbsent(t *testing.T) {
	repo := NewCategoryRepository(openStore(t))

	got, err := repo.GetById(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	c := newCategory("Lighting")
	require.NoError(t, repo.Add(ctx, c))
	require.NoError(t, repo.Remove(ctx, c))

	got, err := repo.GetById(ctx, c.CategoryID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Removing a row that is already gone is not an error.
	assert.NoError(t, repo.Remove(ctx, c))
}

func TestAddRangeAndRemoveRange(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	batch := []*models.Category{newCategory("Sensors"), newCategory("Cameras"), newCategory("Locks")}
	require.NoError(t, repo.AddRange(ctx, batch))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, repo.RemoveRange(ctx, batch[:2]))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, batch[2].CategoryID, all[0].CategoryID)
}

func TestEmptyRangesAreNoOps(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	require.NoError(t, repo.Add(ctx, newCategory("Sensors")))
	require.NoError(t, repo.AddRange(ctx, []*models.Category{}))
	require.NoError(t, repo.AddRange(ctx, nil))
	require.NoError(t, repo.RemoveRange(ctx, nil))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNilEntities(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	assert.ErrorIs(t, repo.Add(ctx, nil), ErrNilEntity)
	assert.ErrorIs(t, repo.Update(ctx, nil), ErrNilEntity)
	assert.ErrorIs(t, repo.Remove(ctx, nil), ErrNilEntity)
	assert.ErrorIs(t, repo.AddRange(ctx, []*models.Category{newCategory("Sensors"), nil}), ErrNilEntity)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	c := newCategory("Sensors")
	require.NoError(t, repo.Add(ctx, c))

	c.CategoryDescription = "temperature and humidity"
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.GetById(ctx, c.CategoryID)
	require.NoError(t, err)
	requireSameCategory(t, c, got)
}

func TestUpdateMissingRowIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	ghost := newCategory("Ghost")
	ghost.CategoryID = uuid.New()
	err := repo.Update(ctx, ghost)
	require.ErrorIs(t, err, database.ErrNoRowsAffected)

	is, class := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.NoRowsErr, class)

	got, err := repo.GetById(ctx, ghost.CategoryID)
	require.NoError(t, err)
	assert.Nil(t, got, "update must not insert")
}

func TestAddDuplicateKey(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	c := newCategory("Sensors")
	require.NoError(t, repo.Add(ctx, c))

	dup := newCategory("Sensors again")
	dup.CategoryID = c.CategoryID
	err := repo.Add(ctx, dup)
	require.Error(t, err)

	is, class := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.DuplicateKeyErr, class)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)
	categories := NewCategoryRepository(db)
	devices := NewDeviceRepository(db)

	sensors := newCategory("Sensors")
	require.NoError(t, categories.Add(ctx, sensors))

	thermo := newDevice("Thermostat", sensors, nil)
	camera := newDevice("Camera", nil, nil)
	badge := newDevice("Badge reader", sensors, nil)
	badge.IsActive = false
	require.NoError(t, devices.AddRange(ctx, []*models.Device{thermo, camera, badge}))

	cases := []struct {
		name      string
		predicate Predicate[models.Device]
		want      []string
	}{
		{
			name:      "closure",
			predicate: Match(func(d *models.Device) bool { return strings.HasPrefix(d.DeviceName, "B") }),
			want:      []string{"Badge reader"},
		},
		{
			name:      "where",
			predicate: WhereExpr[models.Device]("?TableAlias.category_id = ?", sensors.CategoryID),
			want:      []string{"Thermostat", "Badge reader"},
		},
		{
			name:      "filter",
			predicate: Where[models.Device](types.NewQueryFilter("is_active = ?", true)),
			want:      []string{"Thermostat", "Camera"},
		},
		{
			name:      "empty filter",
			predicate: Where[models.Device](nil),
			want:      []string{"Thermostat", "Camera", "Badge reader"},
		},
		{
			name: "and",
			predicate: And(
				WhereExpr[models.Device]("is_active = ?", true),
				Match(func(d *models.Device) bool { return d.CategoryID == sensors.CategoryID }),
			),
			want: []string{"Thermostat"},
		},
		{
			name:      "no match",
			predicate: Match(func(d *models.Device) bool { return d.DeviceName == "Projector" }),
			want:      []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := devices.Find(ctx, tc.predicate)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, deviceNames(got))
		})
	}
}

func TestFindSeesCurrentRows(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))
	named := Match(func(c *models.Category) bool { return c.CategoryName == "Sensors" })

	got, err := repo.Find(ctx, named)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Add(ctx, newCategory("Sensors")))
	got, err = repo.Find(ctx, named)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openStore(t))

	_, err := repo.Find(ctx, nil)
	assert.ErrorIs(t, err, ErrNilPredicate)

	_, err = repo.Find(ctx, Match[models.Category](nil))
	assert.ErrorIs(t, err, ErrNilPredicate)

	_, err = repo.Find(ctx, WhereExpr[models.Category]("no_such_column = ?", 1))
	require.Error(t, err)
	is, class := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.NoColumnErr, class)
}

func TestRemoveReferencedRowFails(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)
	categories := NewCategoryRepository(db)
	devices := NewDeviceRepository(db)

	sensors := newCategory("Sensors")
	require.NoError(t, categories.Add(ctx, sensors))
	require.NoError(t, devices.Add(ctx, newDevice("Thermostat", sensors, nil)))

	err := categories.Remove(ctx, sensors)
	require.Error(t, err)
	is, class := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.ForeignKeyViolationErr, class)

	got, err := categories.GetById(ctx, sensors.CategoryID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestAddWithUnknownReferenceFails(t *testing.T) {
	ctx := context.Background()
	devices := NewDeviceRepository(openStore(t))

	orphan := newDevice("Orphan", nil, nil)
	orphan.CategoryID = uuid.New()
	err := devices.Add(ctx, orphan)
	require.Error(t, err)
	_, class := database.IsSqlError(err)
	assert.Equal(t, database.ForeignKeyViolationErr, class)
}

func TestRepositoryOverTransaction(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewCategoryRepository(tx).Add(ctx, newCategory("Sensors")))
	require.NoError(t, tx.Rollback())

	all, err := NewCategoryRepository(db).GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
