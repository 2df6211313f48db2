package www

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
)

// roomView groups one room's boxes and items for the planner page.
type roomView struct {
	Room  plan.Room
	Boxes []boxView
	Items []plan.Item
}

type boxView struct {
	Box     plan.Box
	Modules []plan.Module
	Used    int
}

func buildRoomViews(snap plan.Snapshot) []roomView {
	modules := make(map[string][]plan.Module)
	for _, m := range snap.Modules {
		modules[m.BoxID] = append(modules[m.BoxID], m)
	}
	views := make([]roomView, 0, len(snap.Rooms))
	index := make(map[string]int, len(snap.Rooms))
	for i, r := range snap.Rooms {
		index[r.ID] = i
		views = append(views, roomView{Room: r})
	}
	for _, b := range snap.Boxes {
		i, ok := index[b.RoomID]
		if !ok {
			continue
		}
		bv := boxView{Box: b, Modules: modules[b.ID]}
		for _, m := range bv.Modules {
			bv.Used += m.Width()
		}
		views[i].Boxes = append(views[i].Boxes, bv)
	}
	for _, it := range snap.Items {
		if i, ok := index[it.RoomID]; ok {
			views[i].Items = append(views[i].Items, it)
		}
	}
	return views
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Store().Export()
	data := h.pageData(r, "planner")
	data["Rooms"] = buildRoomViews(snap)
	data["FloorPlans"] = snap.FloorPlans
	data["Focus"] = h.engine.Store().Focus()
	data["ModuleTypes"] = plan.ModuleTypes
	data["ItemTypes"] = plan.ItemTypes
	h.render(w, "index.html", data)
}

func (h *Handlers) handleSummary(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "summary")
	data["Summary"] = h.engine.Store().Summary()
	h.render(w, "summary.html", data)
}

func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", h.pageData(r, "login"))
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, password) {
		data := h.pageData(r, "login")
		data["Error"] = "Invalid username or password"
		h.renderStatus(w, http.StatusUnauthorized, "login.html", data)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = username
	if err := session.Save(r, w); err != nil {
		h.log.Warn("session save", zap.Error(err))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	if err := session.Save(r, w); err != nil {
		h.log.Warn("session save", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
