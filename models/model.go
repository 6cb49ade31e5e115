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

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/connectedoffice/database"
)

// Table creation order: lookups before the devices that reference them.
const (
	lookupPriority = 10
	devicePriority = 20
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Category)(nil), lookupPriority))
	database.RegisteredModel(database.NewModelAdapter((*Zone)(nil), lookupPriority))
	database.RegisteredModel(database.NewModelAdapter((*Device)(nil), devicePriority))

	database.RegisteredForeignKey(database.ForeignKeyConstraint{
		Table:           "device",
		Column:          "category_id",
		ReferenceTable:  "category",
		ReferenceColumn: "category_id",
		OnDelete:        "RESTRICT",
	})
	database.RegisteredForeignKey(database.ForeignKeyConstraint{
		Table:           "device",
		Column:          "zone_id",
		ReferenceTable:  "zone",
		ReferenceColumn: "zone_id",
		OnDelete:        "RESTRICT",
	})
}

// assignIdentity gives a new row an id and a creation time. Existing values
// are kept: an id never changes once assigned.
func assignIdentity(id *uuid.UUID, created *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		*created = time.Now().UTC()
	}
}
