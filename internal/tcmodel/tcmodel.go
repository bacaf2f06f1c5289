// Package tcmodel holds the typed wire model for the Teamcenter JSON
// services the client talks to. Decoders are pure: bytes in, typed value or
// DecodeError out, no I/O.
package tcmodel

import "fmt"

// ObjectRef is the minimal identity of any server-side object. The uid is
// issued by the server, never changes, and is the only handle used when the
// object appears in later requests.
type ObjectRef struct {
	ObjectID  string `json:"objectID,omitempty"`
	UID       string `json:"uid"`
	ClassName string `json:"className"`
	Type      string `json:"type"`
}

// PropertyValue carries one attribute of a model object. When both lists are
// present they are index-aligned: DBValues[i] renders as UIValues[i].
type PropertyValue struct {
	DBValues []string `json:"dbValues,omitempty"`
	UIValues []string `json:"uiValues,omitempty"`
}

// ModelObject is an object summary inside a ServiceData or getProperties
// payload. Every field except uid may be omitted by the server.
type ModelObject struct {
	ObjectID  string                   `json:"objectID,omitempty"`
	UID       string                   `json:"uid,omitempty"`
	ClassName string                   `json:"className,omitempty"`
	Type      string                   `json:"type,omitempty"`
	Props     map[string]PropertyValue `json:"props,omitempty"`
}

// ErrorValue is one error entry inside a partial error. Level is an opaque
// severity ordinal from the server; the client passes it through untouched.
type ErrorValue struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Level   int    `json:"level"`
}

// PartialError scopes a failure to a single object within an otherwise
// succeeding call. Its presence does not mean the whole call failed.
type PartialError struct {
	UID         string       `json:"uid"`
	ErrorValues []ErrorValue `json:"errorValues"`
}

// ServiceData is the standard envelope most mutating services attach to
// their response. Ids in Updated/Created/Deleted may or may not have a
// matching ModelObjects entry; the server omits objects the caller already
// knows.
type ServiceData struct {
	Plain         []string               `json:"plain,omitempty"`
	Updated       []string               `json:"updated,omitempty"`
	Created       []string               `json:"created,omitempty"`
	Deleted       []string               `json:"deleted,omitempty"`
	ModelObjects  map[string]ModelObject `json:"modelObjects,omitempty"`
	PartialErrors []PartialError         `json:"partialErrors,omitempty"`
}

// ErrorsByUID flattens the partial errors into a per-uid lookup. The map is
// consultable even when the enclosing call succeeded at transport level,
// because the protocol allows success envelopes that carry partial errors.
func (sd *ServiceData) ErrorsByUID() map[string][]ErrorValue {
	if sd == nil || len(sd.PartialErrors) == 0 {
		return nil
	}
	out := make(map[string][]ErrorValue, len(sd.PartialErrors))
	for _, pe := range sd.PartialErrors {
		out[pe.UID] = append(out[pe.UID], pe.ErrorValues...)
	}
	return out
}

// DecodeError reports a response payload that arrived over a successful
// transport but cannot be used: a required field is missing or has the
// wrong shape. Path names the offending field.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
}

func decodeErrf(path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// requireRef validates the identity triple the protocol promises on every
// created or referenced object.
func requireRef(path string, r ObjectRef) error {
	switch {
	case r.UID == "":
		return decodeErrf(path+".uid", "missing")
	case r.ClassName == "":
		return decodeErrf(path+".className", "missing")
	case r.Type == "":
		return decodeErrf(path+".type", "missing")
	}
	return nil
}
