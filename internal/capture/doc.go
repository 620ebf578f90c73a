// Package capture acquires device screenshots.
//
// A Source returns a Frame holding PNG-encoded bytes and the pixel size.
// Frames that decode to a uniformly dark image are reported as
// domain.ErrCaptureBlocked: Android returns black frames for windows
// flagged as secure (DRM video, banking apps).
//
// Sources:
//
//   - ADBSource: runs "adb exec-out screencap -p" against a device
//   - FileSource: loads a PNG, JPEG, BMP or WebP file from disk
package capture
