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

// Zone is a physical area of the office, e.g. "Lobby".
type Zone struct {
	bun.BaseModel `bun:"table:zone"`

	ZoneID          uuid.UUID `bun:"zone_id,pk,type:varchar(36)" json:"zone_id"`
	ZoneName        string    `bun:"zone_name,notnull" json:"zone_name"`
	ZoneDescription string    `bun:"zone_description" json:"zone_description"`
	DateCreated     time.Time `bun:"date_created,notnull" json:"date_created"`
}

var _ bun.BeforeAppendModelHook = (*Zone)(nil)

func (z *Zone) GetID() uuid.UUID { return z.ZoneID }

func (z *Zone) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		assignIdentity(&z.ZoneID, &z.DateCreated)
	}
	return nil
}
