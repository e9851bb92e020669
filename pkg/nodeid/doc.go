// Package nodeid parses and formats OPC UA node identifiers in their
// text form.
//
// An identifier is an optional namespace prefix followed by one of four
// value forms:
//
//	ns=2;s=Tank.Level    string
//	ns=2;i=1042          numeric
//	g=09087e75-8e5e-499b-954f-f2a9603db28a    GUID (namespace 0)
//	ns=3;b=TWF0cmlx      opaque (base64)
//
// Namespace 0 omits the ns= prefix when formatting. Parse failures are
// reported as uaerrors.KindInvalidNodeID.
//
// The access layer uses IsIdentifier to tell identifiers from aliases:
// anything that is not an identifier form is looked up in the alias
// registry first.
package nodeid
