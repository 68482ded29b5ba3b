package goCampus

import "context"

type deviceIDContextKey struct{}
type platformContextKey struct{}

// WithDeviceID attaches the client device identifier to ctx. Session events emitted
// during calls made with ctx carry it as "device_id" metadata.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey{}, deviceID)
}

// WithPlatform attaches the client platform ("web", "ios", "android") to ctx as
// "platform" event metadata.
func WithPlatform(ctx context.Context, platform string) context.Context {
	return context.WithValue(ctx, platformContextKey{}, platform)
}

func deviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(deviceIDContextKey{}).(string)
	return id
}

func platformFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	p, _ := ctx.Value(platformContextKey{}).(string)
	return p
}

func contextMetadata(ctx context.Context) map[string]string {
	device := deviceIDFromContext(ctx)
	platform := platformFromContext(ctx)
	if device == "" && platform == "" {
		return nil
	}
	md := make(map[string]string, 2)
	if device != "" {
		md["device_id"] = device
	}
	if platform != "" {
		md["platform"] = platform
	}
	return md
}
