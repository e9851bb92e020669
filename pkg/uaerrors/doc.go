// Package uaerrors defines the failure taxonomy shared by all client
// operations.
//
// Every error surfaced by this module is an *Error carrying a Kind, the
// target it concerns (endpoint or node identifier), the underlying
// cause, and a creation timestamp. Kinds double as sentinels:
//
//	v, err := svc.Read(ctx, "Level")
//	if errors.Is(err, uaerrors.KindNotConnected) {
//	    // reconnect and retry
//	}
//
// The original cause is always preserved through Unwrap, so transport
// failures remain inspectable after classification:
//
//	var ue *uaerrors.Error
//	if errors.As(err, &ue) {
//	    log.Printf("kind=%s target=%s cause=%v", ue.Kind, ue.Target, ue.Cause)
//	}
package uaerrors
