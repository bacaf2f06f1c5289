// Package tcapi is the Teamcenter session client. One Client owns at most
// one authenticated session at a time; every operation other than Login
// requires it.
package tcapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"dreamland/internal/tcmodel"
)

const servicesPath = "/tc/JsonRestServices/"

// Service endpoints, one per operation.
const (
	svcLogin            = "Core-2011-06-Session/login"
	svcLogout           = "Core-2008-06-Session/logout"
	svcSessionInfo      = "Core-2007-01-Session/getTCSessionInfo"
	svcCreateFolders    = "Core-2008-06-DataManagement/createFolders"
	svcCreateItems      = "Core-2006-03-DataManagement/createItems"
	svcExpandFolder     = "Core-2008-06-DataManagement/expandFolder"
	svcGetProperties    = "Core-2006-03-DataManagement/getProperties"
	svcGetItemFromID    = "Core-2007-01-DataManagement/getItemFromId"
	svcCreateBOMWindows = "Cad-2007-01-StructureManagement/createBOMWindows"
	svcAddChildren      = "Bom-2008-06-StructureManagement/addOrUpdateChildrenToParentLine"
	svcSaveBOMWindows   = "Cad-2008-06-StructureManagement/saveBOMWindows"
	svcCloseBOMWindows  = "Cad-2007-01-StructureManagement/closeBOMWindows"
)

// JournalingFlags mirrors the four journaling switches of a session.
type JournalingFlags struct {
	Journaling bool
	App        bool
	Sec        bool
	Adm        bool
}

// Session is the merged view of a login and getTCSessionInfo answer. It is
// valid from a successful Login until Logout or process teardown.
type Session struct {
	ServerVersion string
	HostName      string
	Locale        string
	SiteLocale    string
	LogFile       string
	ServerID      string
	UserID        string
	Privileged    bool
	Journaling    JournalingFlags

	User        tcmodel.ObjectRef
	Group       tcmodel.ObjectRef
	Role        tcmodel.ObjectRef
	Volume      tcmodel.ObjectRef
	Project     tcmodel.ObjectRef
	WorkContext tcmodel.ObjectRef
	Site        tcmodel.ObjectRef

	TextInfos []string
	ExtraInfo map[string]string
}

// Client talks to one Teamcenter instance. The session slot is per client
// instance, so independent clients and tests never share state.
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
	Timeout    time.Duration

	mu      sync.Mutex
	session *Session
}

// New creates a client with a cookie jar so the server's session cookie
// survives across calls.
func New(baseURL, username, password string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		Timeout:  30 * time.Second,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

type loginBody struct {
	Credentials struct {
		User        string `json:"user"`
		Password    string `json:"password"`
		Group       string `json:"group"`
		Role        string `json:"role"`
		Locale      string `json:"locale"`
		Descrimator string `json:"descrimator"`
	} `json:"credentials"`
}

// Login authenticates and fills the session slot, replacing any prior
// session. Credential rejections map to ReasonInvalidCredentials, anything
// else to ReasonUnreachable.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	var body loginBody
	body.Credentials.User = c.Username
	body.Credentials.Password = c.Password
	body.Credentials.Descrimator = "dreamland"

	raw, err := c.post(ctx, svcLogin, body)
	if err != nil {
		return nil, classifyLoginErr(err)
	}
	login, err := tcmodel.DecodeLoginResponse(raw)
	if err != nil {
		return nil, err
	}

	raw, err = c.post(ctx, svcSessionInfo, struct{}{})
	if err != nil {
		return nil, err
	}
	info, err := tcmodel.DecodeSessionInfoResponse(raw)
	if err != nil {
		return nil, err
	}

	s := mergeSession(login.ServerInfo, info)
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// CurrentSession returns the active session or ErrNotLoggedIn.
func (c *Client) CurrentSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}
	return c.session, nil
}

// Logout clears the session slot. Calling it while already logged out is a
// no-op. The server-side logout is best effort; a dead server must not keep
// the client stuck in a logged-in state.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	active := c.session != nil
	c.session = nil
	c.mu.Unlock()
	if active {
		_, _ = c.post(ctx, svcLogout, struct{}{})
	}
	return nil
}

func mergeSession(srv *tcmodel.ServerInfo, info *tcmodel.SessionInfoResponse) *Session {
	s := &Session{
		ServerVersion: info.ServerVersion,
		Privileged:    info.Privileged,
		Journaling: JournalingFlags{
			Journaling: info.Journaling,
			App:        info.AppJournaling,
			Sec:        info.SecJournaling,
			Adm:        info.AdmJournaling,
		},
		User:        info.User,
		Group:       info.Group,
		Role:        info.Role,
		Volume:      info.TcVolume,
		Project:     info.Project,
		WorkContext: info.WorkContext,
		Site:        info.Site,
		TextInfos:   info.TextInfos,
		ExtraInfo:   info.ExtraInfo,
	}
	if srv != nil {
		s.HostName = srv.HostName
		s.Locale = srv.Locale
		s.SiteLocale = srv.SiteLocale
		s.LogFile = srv.LogFile
		s.ServerID = srv.TcServerID
		s.UserID = srv.UserID
		if s.ServerVersion == "" {
			s.ServerVersion = srv.Version
		}
	}
	return s
}

func classifyLoginErr(err error) error {
	if te, ok := err.(*TransportError); ok {
		switch {
		case te.StatusCode == http.StatusUnauthorized,
			te.StatusCode == http.StatusForbidden,
			strings.Contains(te.Body, "InvalidCredentials"):
			return &AuthError{Reason: ReasonInvalidCredentials, Err: err}
		}
	}
	return &AuthError{Reason: ReasonUnreachable, Err: err}
}

// requireSession gates every non-login operation.
func (c *Client) requireSession() error {
	_, err := c.CurrentSession()
	return err
}

// post issues one JSON service call and returns the raw response body.
// Network failures and non-2xx answers come back as *TransportError.
func (c *Client) post(ctx context.Context, service string, body any) ([]byte, error) {
	if c.HTTPClient == nil {
		jar, _ := cookiejar.New(nil)
		c.HTTPClient = &http.Client{Timeout: c.Timeout, Jar: jar}
	}
	url := strings.TrimRight(c.BaseURL, "/") + servicesPath + service

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(envelope(body)); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Service: service, Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &TransportError{Service: service, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// envelope wraps a service body in the header/body frame the JSON services
// expect.
func envelope(body any) map[string]any {
	return map[string]any{
		"header": map[string]any{
			"state":  map[string]any{},
			"policy": map[string]any{},
		},
		"body": body,
	}
}
