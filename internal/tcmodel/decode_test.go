package tcmodel_test

import (
	"encoding/json"
	"errors"
	"testing"

	"dreamland/internal/tcmodel"
)

func TestDecodeLoginResponse(t *testing.T) {
	raw := []byte(`{".QName":"...LoginResponse","serverInfo":{"HostName":"tc01","UserID":"infodba","Version":"14.3"}}`)
	resp, err := tcmodel.DecodeLoginResponse(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ServerInfo.UserID != "infodba" || resp.ServerInfo.HostName != "tc01" {
		t.Fatalf("unexpected server info: %+v", resp.ServerInfo)
	}
}

func TestDecodeLoginResponseMissingServerInfo(t *testing.T) {
	_, err := tcmodel.DecodeLoginResponse([]byte(`{".QName":"x"}`))
	var de *tcmodel.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Path != "loginResponse.serverInfo" {
		t.Fatalf("unexpected path %q", de.Path)
	}
}

func sessionInfoJSON() map[string]any {
	ref := func(uid string) map[string]any {
		return map[string]any{"uid": uid, "className": "C", "type": "T"}
	}
	return map[string]any{
		"serverVersion": "14.3.0.0",
		"privileged":    true,
		"journaling":    true,
		"user":          ref("user-1"),
		"group":         ref("group-1"),
		"role":          ref("role-1"),
		"tcVolume":      ref("vol-1"),
		"project":       ref("proj-1"),
		"workContext":   ref("wc-1"),
		"site":          ref("site-1"),
		"textInfos":     []string{"a", "b"},
		"extraInfo":     map[string]string{"k": "v"},
	}
}

func TestDecodeSessionInfoResponse(t *testing.T) {
	raw, _ := json.Marshal(sessionInfoJSON())
	resp, err := tcmodel.DecodeSessionInfoResponse(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.UID != "user-1" || !resp.Privileged {
		t.Fatalf("unexpected session info: %+v", resp)
	}
	if len(resp.TextInfos) != 2 || resp.ExtraInfo["k"] != "v" {
		t.Fatalf("text/extra info lost: %+v", resp)
	}
}

func TestDecodeSessionInfoMissingRef(t *testing.T) {
	payload := sessionInfoJSON()
	payload["group"] = map[string]any{"uid": "group-1", "className": "C"} // no type
	raw, _ := json.Marshal(payload)
	_, err := tcmodel.DecodeSessionInfoResponse(raw)
	var de *tcmodel.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Path != "sessionInfo.group.type" {
		t.Fatalf("unexpected path %q", de.Path)
	}
}

func TestDecodeCreateItemsResponse(t *testing.T) {
	raw := []byte(`{"output":[{"item":{"uid":"item-1","className":"Item","type":"Item"},"itemRev":{"uid":"rev-1","className":"ItemRevision","type":"ItemRevision"}}]}`)
	resp, err := tcmodel.DecodeCreateItemsResponse(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Output[0].Item.UID != "item-1" || resp.Output[0].ItemRev.UID != "rev-1" {
		t.Fatalf("unexpected output: %+v", resp.Output)
	}
}

func TestDecodeCreateItemsMissingRevision(t *testing.T) {
	raw := []byte(`{"output":[{"item":{"uid":"item-1","className":"Item","type":"Item"},"itemRev":{"className":"ItemRevision","type":"ItemRevision"}}]}`)
	_, err := tcmodel.DecodeCreateItemsResponse(raw)
	var de *tcmodel.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Path != "createItems.output[0].itemRev.uid" {
		t.Fatalf("unexpected path %q", de.Path)
	}
}

func TestDecodeCreateFoldersMissingClass(t *testing.T) {
	raw := []byte(`{"output":[{"folder":{"uid":"folder-1","type":"Folder"}}]}`)
	_, err := tcmodel.DecodeCreateFoldersResponse(raw)
	var de *tcmodel.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Path != "createFolders.output[0].folder.className" {
		t.Fatalf("unexpected path %q", de.Path)
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := tcmodel.DecodeCreateFoldersResponse([]byte(`{not json`))
	var de *tcmodel.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestServiceDataPartialErrorRoundTrip(t *testing.T) {
	sd := tcmodel.ServiceData{
		Created: []string{"item-1"},
		PartialErrors: []tcmodel.PartialError{
			{UID: "item-2", ErrorValues: []tcmodel.ErrorValue{
				{Message: "name already in use", Code: 515024, Level: 3},
				{Message: "type not allowed", Code: 515107, Level: 2},
			}},
			{UID: "item-3", ErrorValues: []tcmodel.ErrorValue{
				{Message: "no write access", Code: 515001, Level: 3},
			}},
		},
	}
	raw, err := json.Marshal(sd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got tcmodel.ServiceData
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.PartialErrors) != 2 {
		t.Fatalf("lost partial errors: %+v", got.PartialErrors)
	}
	for i, pe := range sd.PartialErrors {
		if got.PartialErrors[i].UID != pe.UID {
			t.Fatalf("uid mismatch at %d", i)
		}
		for j, ev := range pe.ErrorValues {
			g := got.PartialErrors[i].ErrorValues[j]
			if g != ev {
				t.Fatalf("error value mismatch at %d/%d: %+v != %+v", i, j, g, ev)
			}
		}
	}
}

func TestErrorsByUID(t *testing.T) {
	sd := &tcmodel.ServiceData{
		PartialErrors: []tcmodel.PartialError{
			{UID: "a", ErrorValues: []tcmodel.ErrorValue{{Message: "m1", Code: 1, Level: 1}}},
			{UID: "a", ErrorValues: []tcmodel.ErrorValue{{Message: "m2", Code: 2, Level: 2}}},
			{UID: "b", ErrorValues: []tcmodel.ErrorValue{{Message: "m3", Code: 3, Level: 3}}},
		},
	}
	byUID := sd.ErrorsByUID()
	if len(byUID["a"]) != 2 || len(byUID["b"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", byUID)
	}
	if byUID["a"][1].Message != "m2" || byUID["b"][0].Code != 3 {
		t.Fatalf("values lost: %+v", byUID)
	}
	var empty *tcmodel.ServiceData
	if empty.ErrorsByUID() != nil {
		t.Fatalf("nil service data should have no errors")
	}
}
