package tcmodel

import (
	"encoding/json"
	"fmt"
)

// unmarshal wraps json.Unmarshal so malformed payloads surface as a
// DecodeError rooted at the response itself.
func unmarshal(data []byte, root string, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return decodeErrf(root, "invalid json: %v", err)
	}
	return nil
}

// DecodeLoginResponse decodes a login body. The serverInfo block is the only
// part callers rely on, so its absence is a decode failure.
func DecodeLoginResponse(data []byte) (*LoginResponse, error) {
	var resp LoginResponse
	if err := unmarshal(data, "loginResponse", &resp); err != nil {
		return nil, err
	}
	if resp.ServerInfo == nil {
		return nil, decodeErrf("loginResponse.serverInfo", "missing")
	}
	return &resp, nil
}

// DecodeSessionInfoResponse decodes getTCSessionInfo. serverVersion and the
// seven session object refs are required; everything else tolerates absence.
func DecodeSessionInfoResponse(data []byte) (*SessionInfoResponse, error) {
	var resp SessionInfoResponse
	if err := unmarshal(data, "sessionInfo", &resp); err != nil {
		return nil, err
	}
	if resp.ServerVersion == "" {
		return nil, decodeErrf("sessionInfo.serverVersion", "missing")
	}
	refs := []struct {
		path string
		ref  ObjectRef
	}{
		{"sessionInfo.user", resp.User},
		{"sessionInfo.group", resp.Group},
		{"sessionInfo.role", resp.Role},
		{"sessionInfo.tcVolume", resp.TcVolume},
		{"sessionInfo.project", resp.Project},
		{"sessionInfo.workContext", resp.WorkContext},
		{"sessionInfo.site", resp.Site},
	}
	for _, r := range refs {
		if err := requireRef(r.path, r.ref); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// DecodeExpandFolderResponse decodes expandFolder. Each output entry must
// carry a fully identified input folder.
func DecodeExpandFolderResponse(data []byte) (*ExpandFolderResponse, error) {
	var resp ExpandFolderResponse
	if err := unmarshal(data, "expandFolder", &resp); err != nil {
		return nil, err
	}
	for i, out := range resp.Output {
		if err := requireRef(fmt.Sprintf("expandFolder.output[%d].inputFolder", i), out.InputFolder); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func DecodeGetPropertiesResponse(data []byte) (*GetPropertiesResponse, error) {
	var resp GetPropertiesResponse
	if err := unmarshal(data, "getProperties", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecodeCreateFoldersResponse decodes createFolders and validates the
// identity triple of every created folder.
func DecodeCreateFoldersResponse(data []byte) (*CreateFoldersResponse, error) {
	var resp CreateFoldersResponse
	if err := unmarshal(data, "createFolders", &resp); err != nil {
		return nil, err
	}
	for i, out := range resp.Output {
		if err := requireRef(fmt.Sprintf("createFolders.output[%d].folder", i), out.Folder); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// DecodeCreateItemsResponse decodes createItems. Both the item and its
// revision must be fully identified for an output entry to be usable.
func DecodeCreateItemsResponse(data []byte) (*CreateItemsResponse, error) {
	var resp CreateItemsResponse
	if err := unmarshal(data, "createItems", &resp); err != nil {
		return nil, err
	}
	for i, out := range resp.Output {
		if err := requireRef(fmt.Sprintf("createItems.output[%d].item", i), out.Item); err != nil {
			return nil, err
		}
		if err := requireRef(fmt.Sprintf("createItems.output[%d].itemRev", i), out.ItemRev); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func DecodeGetItemFromIDResponse(data []byte) (*GetItemFromIDResponse, error) {
	var resp GetItemFromIDResponse
	if err := unmarshal(data, "getItemFromId", &resp); err != nil {
		return nil, err
	}
	for i, out := range resp.Output {
		if err := requireRef(fmt.Sprintf("getItemFromId.output[%d].item", i), out.Item); err != nil {
			return nil, err
		}
		for j, rev := range out.ItemRevOutput {
			if err := requireRef(fmt.Sprintf("getItemFromId.output[%d].itemRevOutput[%d].itemRevision", i, j), rev.ItemRevision); err != nil {
				return nil, err
			}
		}
	}
	return &resp, nil
}

func DecodeCreateBOMWindowsResponse(data []byte) (*CreateBOMWindowsResponse, error) {
	var resp CreateBOMWindowsResponse
	if err := unmarshal(data, "createBOMWindows", &resp); err != nil {
		return nil, err
	}
	for i, out := range resp.Output {
		if err := requireRef(fmt.Sprintf("createBOMWindows.output[%d].bomWindow", i), out.BOMWindow); err != nil {
			return nil, err
		}
		if err := requireRef(fmt.Sprintf("createBOMWindows.output[%d].bomLine", i), out.BOMLine); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func DecodeSaveBOMWindowsResponse(data []byte) (*SaveBOMWindowsResponse, error) {
	var resp SaveBOMWindowsResponse
	if err := unmarshal(data, "saveBOMWindows", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func DecodeCloseBOMWindowsResponse(data []byte) (*CloseBOMWindowsResponse, error) {
	var resp CloseBOMWindowsResponse
	if err := unmarshal(data, "closeBOMWindows", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecodeAddChildrenResponse decodes addOrUpdateChildrenToParentLine. Child
// lines are matched back to the request by their echoed clientId.
func DecodeAddChildrenResponse(data []byte) (*AddChildrenResponse, error) {
	var resp AddChildrenResponse
	if err := unmarshal(data, "addChildren", &resp); err != nil {
		return nil, err
	}
	for i, line := range resp.ItemLines {
		if line.ClientID == "" {
			return nil, decodeErrf(fmt.Sprintf("addChildren.itemLines[%d].clientId", i), "missing")
		}
		if err := requireRef(fmt.Sprintf("addChildren.itemLines[%d].bomline", i), line.BOMLine); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}
