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
	"database/sql/driver"
	"fmt"

	"github.com/tomoncle/connectedoffice/types"
)

// DeviceStatus is stored by name.
type DeviceStatus int

const (
	DeviceStatusUnknown DeviceStatus = iota
	DeviceStatusOnline
	DeviceStatusOffline
	DeviceStatusMaintenance
)

var deviceStatuses = []DeviceStatus{
	DeviceStatusUnknown,
	DeviceStatusOnline,
	DeviceStatusOffline,
	DeviceStatusMaintenance,
}

var deviceStatusNames = map[DeviceStatus][2]string{
	DeviceStatusUnknown:     {types.IllegalName, "status not reported"},
	DeviceStatusOnline:      {"online", "reachable and reporting"},
	DeviceStatusOffline:     {"offline", "not reachable"},
	DeviceStatusMaintenance: {"maintenance", "taken out of service"},
}

var _ types.BaseEnum = DeviceStatus(0)

func (s DeviceStatus) IsValid() bool {
	_, ok := deviceStatusNames[s]
	return ok
}

func (s DeviceStatus) Number() int {
	if !s.IsValid() {
		return types.IllegalValue
	}
	return int(s)
}

func (s DeviceStatus) Name() string {
	if n, ok := deviceStatusNames[s]; ok {
		return n[0]
	}
	return types.IllegalName
}

func (s DeviceStatus) Desc() string {
	if n, ok := deviceStatusNames[s]; ok {
		return n[1]
	}
	return types.IllegalDesc
}

func (s DeviceStatus) String() string { return s.Name() }

// ParseDeviceStatus maps a stored name back to its status.
func ParseDeviceStatus(name string) (DeviceStatus, error) {
	if s, ok := types.EnumByName(deviceStatuses, name); ok {
		return s, nil
	}
	return DeviceStatusUnknown, fmt.Errorf("unknown device status %q", name)
}

func (s DeviceStatus) Value() (driver.Value, error) {
	return s.Name(), nil
}

func (s *DeviceStatus) Scan(value interface{}) error {
	var name string
	switch v := value.(type) {
	case nil:
		*s = DeviceStatusUnknown
		return nil
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into DeviceStatus", value)
	}
	parsed, err := ParseDeviceStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s DeviceStatus) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}

func (s *DeviceStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
