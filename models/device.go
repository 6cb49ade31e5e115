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

// Device is a connected device placed in a Zone and classified by a Category.
// CategoryID and ZoneID equal to uuid.Nil are stored as NULL. The Category and
// Zone slots are only filled by queries that join the relations.
type Device struct {
	bun.BaseModel `bun:"table:device"`

	DeviceID    uuid.UUID    `bun:"device_id,pk,type:varchar(36)" json:"device_id"`
	DeviceName  string       `bun:"device_name,notnull" json:"device_name"`
	CategoryID  uuid.UUID    `bun:"category_id,type:varchar(36),nullzero" json:"category_id"`
	Category    *Category    `bun:"rel:belongs-to,join:category_id=category_id" json:"category,omitempty"`
	ZoneID      uuid.UUID    `bun:"zone_id,type:varchar(36),nullzero" json:"zone_id"`
	Zone        *Zone        `bun:"rel:belongs-to,join:zone_id=zone_id" json:"zone,omitempty"`
	Status      DeviceStatus `bun:"status,type:varchar(16),notnull" json:"status"`
	IsActive    bool         `bun:"is_active,notnull" json:"is_active"`
	DateCreated time.Time    `bun:"date_created,notnull" json:"date_created"`
}

var _ bun.BeforeAppendModelHook = (*Device)(nil)

func (d *Device) GetID() uuid.UUID { return d.DeviceID }

func (d *Device) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		assignIdentity(&d.DeviceID, &d.DateCreated)
	}
	return nil
}
