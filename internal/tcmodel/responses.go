package tcmodel

// ServerInfo is the login response's server identity block. Every field is
// optional; the server only fills what it knows.
type ServerInfo struct {
	DisplayVersion string `json:"DisplayVersion,omitempty"`
	HostName       string `json:"HostName,omitempty"`
	Locale         string `json:"Locale,omitempty"`
	LogFile        string `json:"LogFile,omitempty"`
	SiteLocale     string `json:"SiteLocale,omitempty"`
	TcServerID     string `json:"TcServerID,omitempty"`
	UserID         string `json:"UserID,omitempty"`
	Version        string `json:"Version,omitempty"`
}

// LoginResponse is the body of a successful login call.
type LoginResponse struct {
	QName      string      `json:".QName,omitempty"`
	ServerInfo *ServerInfo `json:"serverInfo"`
}

// SessionInfoResponse is the body of getTCSessionInfo. The object refs name
// the session's user, group, role, volume, project, work context and site.
type SessionInfoResponse struct {
	QName                    string            `json:".QName,omitempty"`
	ServerVersion            string            `json:"serverVersion"`
	TransientVolRootDir      string            `json:"transientVolRootDir"`
	IsInV7Mode               bool              `json:"isInV7Mode"`
	ModuleNumber             int               `json:"moduleNumber"`
	Bypass                   bool              `json:"bypass"`
	Journaling               bool              `json:"journaling"`
	AppJournaling            bool              `json:"appJournaling"`
	SecJournaling            bool              `json:"secJournaling"`
	AdmJournaling            bool              `json:"admJournaling"`
	Privileged               bool              `json:"privileged"`
	IsPartBOMUsageEnabled    bool              `json:"isPartBOMUsageEnabled"`
	IsSubscriptionMgrEnabled bool              `json:"isSubscriptionMgrEnabled"`
	User                     ObjectRef         `json:"user"`
	Group                    ObjectRef         `json:"group"`
	Role                     ObjectRef         `json:"role"`
	TcVolume                 ObjectRef         `json:"tcVolume"`
	Project                  ObjectRef         `json:"project"`
	WorkContext              ObjectRef         `json:"workContext"`
	Site                     ObjectRef         `json:"site"`
	TextInfos                []string          `json:"textInfos"`
	ExtraInfo                map[string]string `json:"extraInfo"`
	ServiceData              *ServiceData      `json:"ServiceData,omitempty"`
}

// ExpandFolderOutput is one entry of the expandFolder output array.
type ExpandFolderOutput struct {
	InputFolder   ObjectRef   `json:"inputFolder"`
	FstlvlFolders []ObjectRef `json:"fstlvlFolders"`
}

type ExpandFolderResponse struct {
	QName       string               `json:".QName,omitempty"`
	Output      []ExpandFolderOutput `json:"output,omitempty"`
	ServiceData *ServiceData         `json:"ServiceData,omitempty"`
}

type GetPropertiesResponse struct {
	QName        string                 `json:".QName,omitempty"`
	Plain        []string               `json:"plain,omitempty"`
	ModelObjects map[string]ModelObject `json:"modelObjects,omitempty"`
}

// CreateFoldersOutput wraps one created folder.
type CreateFoldersOutput struct {
	Folder ObjectRef `json:"folder"`
}

type CreateFoldersResponse struct {
	Output      []CreateFoldersOutput `json:"output,omitempty"`
	ServiceData *ServiceData          `json:"ServiceData,omitempty"`
}

// CreateItemsOutput wraps one created item and its initial revision.
type CreateItemsOutput struct {
	Item    ObjectRef `json:"item"`
	ItemRev ObjectRef `json:"itemRev"`
}

type CreateItemsResponse struct {
	Output      []CreateItemsOutput `json:"output,omitempty"`
	ServiceData *ServiceData        `json:"ServiceData,omitempty"`
}

// GetItemFromIDOutput pairs an item with its revisions.
type GetItemFromIDOutput struct {
	Item          ObjectRef       `json:"item"`
	ItemRevOutput []ItemRevOutput `json:"itemRevOutput"`
}

type ItemRevOutput struct {
	ItemRevision ObjectRef `json:"itemRevision"`
}

type GetItemFromIDResponse struct {
	QName  string                `json:".QName,omitempty"`
	Output []GetItemFromIDOutput `json:"output,omitempty"`
}

// CreateBOMWindowsOutput echoes the caller's clientId so a request entry can
// be matched to its window and top line.
type CreateBOMWindowsOutput struct {
	ClientID  string    `json:"clientId"`
	BOMWindow ObjectRef `json:"bomWindow"`
	BOMLine   ObjectRef `json:"bomLine"`
}

type CreateBOMWindowsResponse struct {
	QName  string                   `json:".QName,omitempty"`
	Output []CreateBOMWindowsOutput `json:"output,omitempty"`
}

type SaveBOMWindowsResponse struct {
	QName       string      `json:".QName,omitempty"`
	ServiceData ServiceData `json:"ServiceData"`
}

type CloseBOMWindowsResponse struct {
	QName       string      `json:".QName,omitempty"`
	ServiceData ServiceData `json:"ServiceData"`
}

// ItemLine is one child BOM line keyed by the caller's correlation token.
type ItemLine struct {
	ClientID string    `json:"clientId"`
	BOMLine  ObjectRef `json:"bomline"`
}

// ItemElementLine is one element line keyed the same way.
type ItemElementLine struct {
	ClientID        string    `json:"clientId"`
	ItemElementLine ObjectRef `json:"itemelementLine"`
}

type AddChildrenResponse struct {
	QName            string            `json:".QName,omitempty"`
	ItemLines        []ItemLine        `json:"itemLines,omitempty"`
	ItemElementLines []ItemElementLine `json:"itemelementLines,omitempty"`
	ServiceData      *ServiceData      `json:"ServiceData,omitempty"`
}
