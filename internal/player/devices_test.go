package player

import (
	"testing"

	"github.com/desertthunder/spotitui/internal/models"
)

func TestSelectDefault(t *testing.T) {
	devices := []models.Device{
		{ID: "1", Name: "Kitchen"},
		{ID: "2", Name: "Office"},
		{ID: "3", Name: "Phone"},
	}

	cases := []struct {
		name      string
		devices   []models.Device
		preferred string
		want      string
	}{
		{"empty list", nil, "Office", ""},
		{"exact match", devices, "Office", "2"},
		{"case insensitive match", devices, "office", "2"},
		{"no match falls back to first", devices, "Bedroom", "1"},
		{"no preference falls back to first", devices, "", "1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectDefault(tc.devices, tc.preferred); got != tc.want {
				t.Errorf("SelectDefault(%q) = %q, want %q", tc.preferred, got, tc.want)
			}
		})
	}
}

func TestActiveDevice(t *testing.T) {
	t.Run("returns the active device", func(t *testing.T) {
		devices := []models.Device{
			{ID: "1", Name: "Kitchen"},
			{ID: "2", Name: "Office", Active: true},
		}

		got := ActiveDevice(devices)
		if got == nil || got.ID != "2" {
			t.Errorf("ActiveDevice = %+v, want device 2", got)
		}
	})

	t.Run("nil when none active", func(t *testing.T) {
		devices := []models.Device{{ID: "1", Name: "Kitchen"}}
		if got := ActiveDevice(devices); got != nil {
			t.Errorf("ActiveDevice = %+v, want nil", got)
		}
	})
}
