package adam

import (
	"context"
	"errors"
	"fmt"
)

// Identity the controller must report before it is accepted.
const (
	Model        = "Adam"
	Manufacturer = "IoTiX"
)

// ErrNotAdam is returned when a host answers /api/info but is not an
// Adam controller.
var ErrNotAdam = errors.New("adam: device is not an IoTiX Adam controller")

// Discovered is an advertisement seen on the network. The payload must
// carry a mac property; advertisements without one are not usable as a
// stable device identity.
type Discovered struct {
	Host string
	MAC  string
}

// ErrNoMAC is returned for advertisements missing the mac property.
var ErrNoMAC = errors.New("adam: discovery payload has no mac property")

// Verify confirms that the host behind a discovery candidate is a genuine
// Adam controller and returns its device info.
func Verify(ctx context.Context, client AdamClient, d Discovered) (*DeviceInfo, error) {
	if d.MAC == "" {
		return nil, ErrNoMAC
	}

	info, err := client.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying %s: %w", d.Host, err)
	}

	if info.Model != Model || info.Manufacturer != Manufacturer {
		return nil, fmt.Errorf("%w: model=%q manufacturer=%q", ErrNotAdam, info.Model, info.Manufacturer)
	}

	return info, nil
}
