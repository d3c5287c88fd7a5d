package connect

import (
	"context"
	"fmt"
	"strings"

	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/spotify/client"
)

// DeviceLister lists Connect devices.
type DeviceLister interface {
	GetDevices(ctx context.Context) ([]client.Device, error)
}

// ResolveDevice finds a device by ID, then by case-insensitive name, then by
// partial name. An empty nameOrID resolves to "" so playback targets the
// active device.
func ResolveDevice(ctx context.Context, api DeviceLister, nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", nil
	}

	devices, err := api.GetDevices(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get devices: %w", err)
	}

	// First try exact ID match
	for _, d := range devices {
		if d.ID == nameOrID {
			return d.ID, nil
		}
	}

	// Then try case-insensitive name match
	nameLower := strings.ToLower(nameOrID)
	for _, d := range devices {
		if strings.ToLower(d.Name) == nameLower {
			return d.ID, nil
		}
	}

	// Finally try partial name match
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), nameLower) {
			return d.ID, nil
		}
	}

	return "", fmt.Errorf("%w: %s", cerrors.ErrDeviceNotFound, nameOrID)
}
