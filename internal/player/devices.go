package player

import (
	"strings"

	"github.com/desertthunder/spotitui/internal/models"
)

// SelectDefault resolves which device should receive commands: the
// case-insensitive exact match for preferredName when present, otherwise
// the first device, otherwise "" when the list is empty.
//
// Pure function: no network access, no side effects.
func SelectDefault(devices []models.Device, preferredName string) string {
	if len(devices) == 0 {
		return ""
	}

	if preferredName != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Name, preferredName) {
				return d.ID
			}
		}
	}

	return devices[0].ID
}

// ActiveDevice returns the device currently marked active, if any.
func ActiveDevice(devices []models.Device) *models.Device {
	for i := range devices {
		if devices[i].Active {
			return &devices[i]
		}
	}
	return nil
}
