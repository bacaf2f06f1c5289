// Package stubserver is an in-process Teamcenter look-alike. It speaks the
// same JSON service envelopes as the real server, enough for offline demos
// and for exercising the client against real HTTP.
package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"dreamland/internal/tcmodel"
)

const sessionCookie = "JSESSIONID"

// Options configures the stub.
type Options struct {
	Username string
	Password string
	// JWTSecret signs the session cookie. A default is used when empty.
	JWTSecret []byte
	// FailItems maps an item name to an error message. createItems calls
	// for those names answer with a partial error and no created objects.
	FailItems map[string]string
}

// Server holds the in-memory object table. Uids are deterministic per
// instance: folder-1, item-1, rev-1, ...
type Server struct {
	opts Options

	mu       sync.Mutex
	objects  map[string]tcmodel.ObjectRef
	children map[string][]string
	folders  int
	items    int
	windows  int
}

func New(opts Options) *Server {
	if opts.Username == "" {
		opts.Username = "infodba"
	}
	if len(opts.JWTSecret) == 0 {
		opts.JWTSecret = []byte("dreamland-stub")
	}
	return &Server{
		opts:     opts,
		objects:  map[string]tcmodel.ObjectRef{},
		children: map[string][]string{},
	}
}

// Handler returns the HTTP handler for the stub.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/tc/JsonRestServices", func(r chi.Router) {
		r.Post("/Core-2011-06-Session/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/Core-2008-06-Session/logout", s.handleLogout)
			r.Post("/Core-2007-01-Session/getTCSessionInfo", s.handleSessionInfo)
			r.Post("/Core-2008-06-DataManagement/createFolders", s.handleCreateFolders)
			r.Post("/Core-2006-03-DataManagement/createItems", s.handleCreateItems)
			r.Post("/Core-2008-06-DataManagement/expandFolder", s.handleExpandFolder)
			r.Post("/Core-2006-03-DataManagement/getProperties", s.handleGetProperties)
			r.Post("/Core-2007-01-DataManagement/getItemFromId", s.handleGetItemFromID)
			r.Post("/Cad-2007-01-StructureManagement/createBOMWindows", s.handleCreateBOMWindows)
			r.Post("/Bom-2008-06-StructureManagement/addOrUpdateChildrenToParentLine", s.handleAddChildren)
			r.Post("/Cad-2008-06-StructureManagement/saveBOMWindows", s.handleSaveBOMWindows)
			r.Post("/Cad-2007-01-StructureManagement/closeBOMWindows", s.handleCloseBOMWindows)
		})
	})
	return r
}

type envelope struct {
	Body json.RawMessage `json:"body"`
}

func readBody(r *http.Request, out any) error {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return err
	}
	if out == nil || len(env.Body) == 0 {
		return nil
	}
	return json.Unmarshal(env.Body, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Credentials struct {
			User     string `json:"user"`
			Password string `json:"password"`
		} `json:"credentials"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Credentials.User != s.opts.Username || body.Credentials.Password != s.opts.Password {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			".QName":  "http://teamcenter.com/Schemas/Core/2011-06/Session.InvalidCredentialsException",
			"message": "The login attempt failed: either the user ID or the password is invalid.",
			"code":    515001,
		})
		return
	}

	claims := jwt.RegisteredClaims{
		Subject:   body.Credentials.User,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(8 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.JWTSecret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})

	writeJSON(w, tcmodel.LoginResponse{
		QName: "http://teamcenter.com/Schemas/Core/2011-06/Session.LoginResponse",
		ServerInfo: &tcmodel.ServerInfo{
			DisplayVersion: "14.3 (stub)",
			HostName:       "dreamland-stub",
			Locale:         "en_US",
			SiteLocale:     "en_US",
			LogFile:        "/tmp/tcserver.syslog",
			TcServerID:     "stub-1",
			UserID:         body.Credentials.User,
			Version:        "14.3.0.0",
		},
	})
}

// requireSession validates the signed session cookie on every call that is
// not login.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		_, err = parser.Parse(cookie.Value, func(t *jwt.Token) (any, error) {
			return s.opts.JWTSecret, nil
		})
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, map[string]any{"ServiceData": tcmodel.ServiceData{}})
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	ref := func(prefix, class, typ string) tcmodel.ObjectRef {
		return tcmodel.ObjectRef{UID: prefix + "-1", ClassName: class, Type: typ}
	}
	writeJSON(w, tcmodel.SessionInfoResponse{
		QName:         "http://teamcenter.com/Schemas/Core/2007-01/Session.GetTCSessionInfoResponse",
		ServerVersion: "14.3.0.0",
		User:          ref("user", "User", "User"),
		Group:         ref("group", "Group", "Group"),
		Role:          ref("role", "Role", "Role"),
		TcVolume:      ref("volume", "ImanVolume", "ImanVolume"),
		Project:       ref("project", "TC_Project", "TC_Project"),
		WorkContext:   ref("workcontext", "WorkContext", "WorkContext"),
		Site:          ref("site", "POM_imc", "POM_imc"),
		TextInfos:     []string{"stub"},
		ExtraInfo:     map[string]string{"TcServerID": "stub-1"},
	})
}

func (s *Server) handleCreateFolders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Folders []struct {
			FolderName string `json:"folderName"`
			FolderDesc string `json:"folderDesc"`
		} `json:"folders"`
		Container tcmodel.ObjectRef `json:"container"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	outputs := make([]tcmodel.CreateFoldersOutput, 0, len(body.Folders))
	var sd tcmodel.ServiceData
	for range body.Folders {
		s.folders++
		folder := tcmodel.ObjectRef{
			UID:       fmt.Sprintf("folder-%d", s.folders),
			ClassName: "Folder",
			Type:      "Folder",
		}
		s.objects[folder.UID] = folder
		if body.Container.UID != "" {
			s.children[body.Container.UID] = append(s.children[body.Container.UID], folder.UID)
		}
		outputs = append(outputs, tcmodel.CreateFoldersOutput{Folder: folder})
		sd.Created = append(sd.Created, folder.UID)
	}
	writeJSON(w, tcmodel.CreateFoldersResponse{Output: outputs, ServiceData: &sd})
}

func (s *Server) handleCreateItems(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Properties []struct {
			ClientID string `json:"clientId"`
			Name     string `json:"name"`
			Type     string `json:"type"`
		} `json:"properties"`
		Container tcmodel.ObjectRef `json:"container"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var resp tcmodel.CreateItemsResponse
	var sd tcmodel.ServiceData
	for _, p := range body.Properties {
		if msg, ok := s.opts.FailItems[p.Name]; ok {
			sd.PartialErrors = append(sd.PartialErrors, tcmodel.PartialError{
				UID: p.ClientID,
				ErrorValues: []tcmodel.ErrorValue{{
					Message: msg,
					Code:    515024,
					Level:   3,
				}},
			})
			continue
		}
		s.items++
		typ := p.Type
		if typ == "" {
			typ = "Item"
		}
		item := tcmodel.ObjectRef{
			UID:       fmt.Sprintf("item-%d", s.items),
			ClassName: "Item",
			Type:      typ,
		}
		rev := tcmodel.ObjectRef{
			UID:       fmt.Sprintf("rev-%d", s.items),
			ClassName: "ItemRevision",
			Type:      typ + "Revision",
		}
		s.objects[item.UID] = item
		s.objects[rev.UID] = rev
		if body.Container.UID != "" {
			s.children[body.Container.UID] = append(s.children[body.Container.UID], item.UID)
		}
		resp.Output = append(resp.Output, tcmodel.CreateItemsOutput{Item: item, ItemRev: rev})
		sd.Created = append(sd.Created, item.UID, rev.UID)
	}
	resp.ServiceData = &sd
	writeJSON(w, resp)
}

func (s *Server) handleExpandFolder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Folders []tcmodel.ObjectRef `json:"folders"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var resp tcmodel.ExpandFolderResponse
	for _, f := range body.Folders {
		out := tcmodel.ExpandFolderOutput{InputFolder: f, FstlvlFolders: []tcmodel.ObjectRef{}}
		for _, uid := range s.children[f.UID] {
			if child, ok := s.objects[uid]; ok && child.ClassName == "Folder" {
				out.FstlvlFolders = append(out.FstlvlFolders, child)
			}
		}
		resp.Output = append(resp.Output, out)
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Objects    []tcmodel.ObjectRef `json:"objects"`
		Attributes []string            `json:"attributes"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := tcmodel.GetPropertiesResponse{ModelObjects: map[string]tcmodel.ModelObject{}}
	for _, o := range body.Objects {
		obj, ok := s.objects[o.UID]
		if !ok {
			continue
		}
		props := map[string]tcmodel.PropertyValue{}
		for _, attr := range body.Attributes {
			props[attr] = tcmodel.PropertyValue{
				DBValues: []string{obj.UID},
				UIValues: []string{obj.UID},
			}
		}
		resp.ModelObjects[o.UID] = tcmodel.ModelObject{
			UID:       obj.UID,
			ClassName: obj.ClassName,
			Type:      obj.Type,
			Props:     props,
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetItemFromID(w http.ResponseWriter, r *http.Request) {
	// The stub does not index items by item id; answer with an empty set.
	writeJSON(w, tcmodel.GetItemFromIDResponse{})
}

func (s *Server) handleCreateBOMWindows(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Info []struct {
			ClientID string            `json:"clientId"`
			ItemRev  tcmodel.ObjectRef `json:"itemRev"`
		} `json:"info"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var resp tcmodel.CreateBOMWindowsResponse
	for _, in := range body.Info {
		s.windows++
		window := tcmodel.ObjectRef{
			UID:       fmt.Sprintf("window-%d", s.windows),
			ClassName: "BOMWindow",
			Type:      "BOMWindow",
		}
		line := tcmodel.ObjectRef{
			UID:       fmt.Sprintf("bomline-%d", s.windows),
			ClassName: "BOMLine",
			Type:      "BOMLine",
		}
		s.objects[window.UID] = window
		s.objects[line.UID] = line
		resp.Output = append(resp.Output, tcmodel.CreateBOMWindowsOutput{
			ClientID:  in.ClientID,
			BOMWindow: window,
			BOMLine:   line,
		})
	}
	writeJSON(w, resp)
}

func (s *Server) handleAddChildren(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Inputs []struct {
			ParentLine tcmodel.ObjectRef `json:"parentLine"`
			Items      []struct {
				ClientID string            `json:"clientId"`
				Item     tcmodel.ObjectRef `json:"item"`
			} `json:"items"`
		} `json:"inputs"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var resp tcmodel.AddChildrenResponse
	var sd tcmodel.ServiceData
	for _, in := range body.Inputs {
		for _, child := range in.Items {
			s.windows++
			line := tcmodel.ObjectRef{
				UID:       fmt.Sprintf("bomline-%d", s.windows),
				ClassName: "BOMLine",
				Type:      "BOMLine",
			}
			s.objects[line.UID] = line
			resp.ItemLines = append(resp.ItemLines, tcmodel.ItemLine{ClientID: child.ClientID, BOMLine: line})
			sd.Created = append(sd.Created, line.UID)
		}
	}
	resp.ServiceData = &sd
	writeJSON(w, resp)
}

func (s *Server) handleSaveBOMWindows(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BOMWindows []tcmodel.ObjectRef `json:"bomWindows"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := tcmodel.SaveBOMWindowsResponse{}
	resp.ServiceData.ModelObjects = map[string]tcmodel.ModelObject{}
	for _, win := range body.BOMWindows {
		resp.ServiceData.Updated = append(resp.ServiceData.Updated, win.UID)
		resp.ServiceData.ModelObjects[win.UID] = tcmodel.ModelObject{
			UID:       win.UID,
			ClassName: win.ClassName,
			Type:      win.Type,
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleCloseBOMWindows(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BOMWindows []tcmodel.ObjectRef `json:"bomWindows"`
	}
	if err := readBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := tcmodel.CloseBOMWindowsResponse{}
	for _, win := range body.BOMWindows {
		delete(s.objects, win.UID)
		resp.ServiceData.Deleted = append(resp.ServiceData.Deleted, win.UID)
	}
	writeJSON(w, resp)
}
