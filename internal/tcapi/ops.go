package tcapi

import (
	"context"

	"github.com/google/uuid"

	"dreamland/internal/tcmodel"
)

// CreateFolder creates one folder under container and returns its identity.
func (c *Client) CreateFolder(ctx context.Context, name, desc string, container tcmodel.ObjectRef) (tcmodel.ObjectRef, error) {
	if err := c.requireSession(); err != nil {
		return tcmodel.ObjectRef{}, err
	}
	body := map[string]any{
		"folders": []map[string]string{{
			"clientId":   uuid.NewString(),
			"folderName": name,
			"folderDesc": desc,
		}},
		"container":    container,
		"relationType": "contents",
	}
	raw, err := c.post(ctx, svcCreateFolders, body)
	if err != nil {
		return tcmodel.ObjectRef{}, err
	}
	resp, err := tcmodel.DecodeCreateFoldersResponse(raw)
	if err != nil {
		return tcmodel.ObjectRef{}, err
	}
	if len(resp.Output) == 0 {
		return tcmodel.ObjectRef{}, &tcmodel.DecodeError{Path: "createFolders.output", Reason: "empty"}
	}
	return resp.Output[0].Folder, nil
}

// CreateItem creates one item inside container. Success needs both the item
// and its initial revision to come back fully identified.
func (c *Client) CreateItem(ctx context.Context, name, typ, desc string, container tcmodel.ObjectRef) (item, rev tcmodel.ObjectRef, err error) {
	if err := c.requireSession(); err != nil {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, err
	}
	body := map[string]any{
		"properties": []map[string]string{{
			"clientId":    uuid.NewString(),
			"name":        name,
			"type":        typ,
			"description": desc,
		}},
		"container":    container,
		"relationType": "contents",
	}
	raw, err := c.post(ctx, svcCreateItems, body)
	if err != nil {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, err
	}
	resp, err := tcmodel.DecodeCreateItemsResponse(raw)
	if err != nil {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, err
	}
	if len(resp.Output) == 0 {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, &tcmodel.DecodeError{Path: "createItems.output", Reason: "empty"}
	}
	return resp.Output[0].Item, resp.Output[0].ItemRev, nil
}

// ExpandFolder lists the first-level contents of a folder.
func (c *Client) ExpandFolder(ctx context.Context, folder tcmodel.ObjectRef) (*tcmodel.ExpandFolderResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"folders": []tcmodel.ObjectRef{folder},
		"pref": map[string]any{
			"expItemRev": false,
			"info":       []map[string]string{{"relationTypeName": "contents"}},
		},
	}
	raw, err := c.post(ctx, svcExpandFolder, body)
	if err != nil {
		return nil, err
	}
	return tcmodel.DecodeExpandFolderResponse(raw)
}

// GetProperties fetches named attributes for a set of objects.
func (c *Client) GetProperties(ctx context.Context, objects []tcmodel.ObjectRef, attributes []string) (*tcmodel.GetPropertiesResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"objects":    objects,
		"attributes": attributes,
	}
	raw, err := c.post(ctx, svcGetProperties, body)
	if err != nil {
		return nil, err
	}
	return tcmodel.DecodeGetPropertiesResponse(raw)
}

// GetItemFromID resolves an item id to the item and its revisions.
func (c *Client) GetItemFromID(ctx context.Context, itemID string) (*tcmodel.GetItemFromIDResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"infos":        []map[string]string{{"itemId": itemID}},
		"nRev":         1,
		"pref":         map[string]any{},
		"relationPref": map[string]any{},
	}
	raw, err := c.post(ctx, svcGetItemFromID, body)
	if err != nil {
		return nil, err
	}
	return tcmodel.DecodeGetItemFromIDResponse(raw)
}

// CreateBOMWindow opens a BOM window on an item revision and returns the
// window plus its top line.
func (c *Client) CreateBOMWindow(ctx context.Context, itemRev tcmodel.ObjectRef) (window, topLine tcmodel.ObjectRef, err error) {
	if err := c.requireSession(); err != nil {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, err
	}
	body := map[string]any{
		"info": []map[string]any{{
			"clientId": uuid.NewString(),
			"itemRev":  itemRev,
		}},
	}
	raw, err := c.post(ctx, svcCreateBOMWindows, body)
	if err != nil {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, err
	}
	resp, err := tcmodel.DecodeCreateBOMWindowsResponse(raw)
	if err != nil {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, err
	}
	if len(resp.Output) == 0 {
		return tcmodel.ObjectRef{}, tcmodel.ObjectRef{}, &tcmodel.DecodeError{Path: "createBOMWindows.output", Reason: "empty"}
	}
	return resp.Output[0].BOMWindow, resp.Output[0].BOMLine, nil
}

// AddChildLines attaches child items under a parent BOM line. Each child
// gets a fresh clientId so the response lines can be matched back.
func (c *Client) AddChildLines(ctx context.Context, parentLine tcmodel.ObjectRef, children []tcmodel.ObjectRef) (*tcmodel.AddChildrenResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(children))
	for _, child := range children {
		items = append(items, map[string]any{
			"clientId": uuid.NewString(),
			"item":     child,
		})
	}
	body := map[string]any{
		"inputs": []map[string]any{{
			"parentLine": parentLine,
			"items":      items,
		}},
	}
	raw, err := c.post(ctx, svcAddChildren, body)
	if err != nil {
		return nil, err
	}
	return tcmodel.DecodeAddChildrenResponse(raw)
}

// SaveBOMWindow persists the structure edits made in a window.
func (c *Client) SaveBOMWindow(ctx context.Context, window tcmodel.ObjectRef) (*tcmodel.SaveBOMWindowsResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]any{"bomWindows": []tcmodel.ObjectRef{window}}
	raw, err := c.post(ctx, svcSaveBOMWindows, body)
	if err != nil {
		return nil, err
	}
	return tcmodel.DecodeSaveBOMWindowsResponse(raw)
}

// CloseBOMWindow releases a window on the server.
func (c *Client) CloseBOMWindow(ctx context.Context, window tcmodel.ObjectRef) (*tcmodel.CloseBOMWindowsResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]any{"bomWindows": []tcmodel.ObjectRef{window}}
	raw, err := c.post(ctx, svcCloseBOMWindows, body)
	if err != nil {
		return nil, err
	}
	return tcmodel.DecodeCloseBOMWindowsResponse(raw)
}
