package restapi

// Details is the per-device status returned by
// /rest/capturedevice/{name}/details. Fields the dashboard does not show are
// ignored when decoding.
type Details struct {
	// Locked is true while the device is tuned and recording
	Locked bool `json:"locked"`

	// ChannelLineup is the lineup the device draws channels from
	ChannelLineup string `json:"channelLineup"`

	// EncoderPoolName is the pool the device belongs to
	EncoderPoolName string `json:"encoderPoolName"`
}

// LockState is the response of the isExternalLocked probe.
type LockState struct {
	// Locked is true when a process outside OpenDCT holds the device
	Locked bool `json:"locked"`
}
