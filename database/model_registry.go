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

package database

import (
	"reflect"
	"sort"
	"sync"
)

// SQLModel is a table created by the base-table migration. Instance returns a
// typed nil Bun model pointer; tables with a lower Priority are created first,
// so referenced tables must have a lower value than the tables pointing at them.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{instance: instance, priority: priority}
}

func (a *ModelAdapter) Instance() interface{} { return a.instance }

func (a *ModelAdapter) Priority() int { return a.priority }

var models struct {
	sync.RWMutex
	byType map[reflect.Type]int
	list   []SQLModel
}

// RegisteredModel adds model to the set created by migrations. Registering the
// same Go type again replaces the earlier entry.
func RegisteredModel(model SQLModel) {
	typ := reflect.TypeOf(model.Instance())

	models.Lock()
	defer models.Unlock()
	if models.byType == nil {
		models.byType = make(map[reflect.Type]int)
	}
	if i, ok := models.byType[typ]; ok {
		models.list[i] = model
		return
	}
	models.byType[typ] = len(models.list)
	models.list = append(models.list, model)
}

// GetRegisteredModels returns the models by ascending priority, ties in
// registration order.
func GetRegisteredModels() []SQLModel {
	models.RLock()
	out := append([]SQLModel(nil), models.list...)
	models.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

func RegisteredModelInstances() []interface{} {
	registered := GetRegisteredModels()
	instances := make([]interface{}, 0, len(registered))
	for _, m := range registered {
		instances = append(instances, m.Instance())
	}
	return instances
}
