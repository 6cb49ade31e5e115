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
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Category groups devices by kind, e.g. "Sensors".
type Category struct {
	bun.BaseModel `bun:"table:category"`

	CategoryID          uuid.UUID `bun:"category_id,pk,type:varchar(36)" json:"category_id"`
	CategoryName        string    `bun:"category_name,notnull" json:"category_name"`
	CategoryDescription string    `bun:"category_description" json:"category_description"`
	DateCreated         time.Time `bun:"date_created,notnull" json:"date_created"`
}

var _ bun.BeforeAppendModelHook = (*Category)(nil)

func (c *Category) GetID() uuid.UUID { return c.CategoryID }

func (c *Category) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		assignIdentity(&c.CategoryID, &c.DateCreated)
	}
	return nil
}
