// internal/app/features/tasks/tasks.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/limits"
	"github.com/dalemusser/fieldops/internal/app/system/navigation"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type taskInput struct {
	Title       string `form:"title" validate:"required,max=200" label:"כותרת"`
	Description string `form:"description" validate:"max=2000" label:"תיאור"`
	AssigneeID  string `form:"assignee_id" validate:"required,objectid" label:"אחראי"`
	DueDate     string `form:"due_date" validate:"omitempty,ymd" label:"תאריך יעד"`
}

type taskRow struct {
	ID          string
	Title       string
	Assignee    string
	CreatedBy   string
	DueDate     string
	Done        bool
	CanComplete bool
}

// taskTable is one "task_rows" table; forms inside it need the token.
type taskTable struct {
	Rows      []taskRow
	CSRFToken string
}

type listData struct {
	viewdata.BaseVM
	Mine      taskTable
	Assigned  taskTable
	ShowDone  bool
	CanAssign bool
}

type assigneeOption struct {
	ID       string
	Name     string
	Selected bool
}

type formData struct {
	formutil.Base
	Input     taskInput
	Assignees []assigneeOption
}

type viewData struct {
	viewdata.BaseVM
	Task        taskRow
	Description string
	CompletedAt string
}

func row(t models.Task, viewer string) taskRow {
	return taskRow{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Assignee:    t.AssigneeName,
		CreatedBy:   t.CreatedByName,
		DueDate:     t.DueDate,
		Done:        t.Status == models.TaskDone,
		CanComplete: t.Status == models.TaskOpen && t.AssigneeID.Hex() == viewer,
	}
}

// ServeList handles GET /tasks[?done=1]: the caller's own tasks and, for
// managers, the tasks they handed out.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "משימות", "/dashboard"),
		ShowDone:  r.URL.Query().Get("done") == "1",
		CanAssign: authz.CanManageWorkers(r),
	}
	mine, err := h.Tasks.ListAssignedTo(ctx, uid, data.ShowDone)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list tasks failed", err, "טעינת המשימות נכשלה", "/dashboard")
		return
	}
	data.Mine.CSRFToken = data.CSRFToken
	data.Assigned.CSRFToken = data.CSRFToken
	for _, t := range mine {
		data.Mine.Rows = append(data.Mine.Rows, row(t, uid.Hex()))
	}
	if data.CanAssign {
		given, err := h.Tasks.ListCreatedBy(ctx, uid)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list assigned tasks failed", err, "טעינת המשימות נכשלה", "/dashboard")
			return
		}
		for _, t := range given {
			if t.Status == models.TaskDone && !data.ShowDone {
				continue
			}
			data.Assigned.Rows = append(data.Assigned.Rows, row(t, uid.Hex()))
		}
	}
	templates.Render(w, r, "task_list", data)
}

func (h *Handler) renderForm(ctx context.Context, w http.ResponseWriter, r *http.Request, data formData) {
	list, err := h.assignees(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load assignees failed", err, "טעינת הטופס נכשלה", "/tasks")
		return
	}
	for _, u := range list {
		data.Assignees = append(data.Assignees, assigneeOption{
			ID:       u.ID.Hex(),
			Name:     u.FullName,
			Selected: u.ID.Hex() == data.Input.AssigneeID,
		})
	}
	templates.Render(w, r, "task_form", data)
}

// ServeNew handles GET /tasks/new[?assignee=].
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	var data formData
	formutil.SetBase(&data.Base, r, h.DB, "משימה חדשה", navigation.SafeBackURL(r, navigation.TasksBackURL))
	data.Input.AssigneeID = normalize.FilterID(r.URL.Query().Get("assignee"))
	h.renderForm(ctx, w, r, data)
}

// HandleCreate handles POST /tasks. The assignee is notified.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var data formData
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxTaskFormSize)
	formutil.SetBase(&data.Base, r, h.DB, "משימה חדשה", navigation.SafeBackURL(r, navigation.TasksBackURL))
	if err := formutil.Bind(r, &data.Input); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bind task failed", err, "נתוני הטופס אינם תקינים", "/tasks")
		return
	}
	data.Input.Title = normalize.Name(data.Input.Title)
	if res := inputval.Validate(data.Input); res.HasErrors() {
		data.SetInvalid(res)
		h.renderForm(ctx, w, r, data)
		return
	}

	list, err := h.assignees(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load assignees failed", err, "שמירת המשימה נכשלה", "/tasks")
		return
	}
	var assignee *models.User
	for i := range list {
		if list[i].ID.Hex() == data.Input.AssigneeID {
			assignee = &list[i]
			break
		}
	}
	if assignee == nil {
		data.FieldErrors = map[string]string{"AssigneeID": "יש לבחור אחראי מהרשימה"}
		data.SetError("יש לבחור אחראי מהרשימה")
		h.renderForm(ctx, w, r, data)
		return
	}

	_, name, uid, _ := authz.UserCtx(r)
	t, err := h.Tasks.Create(ctx, models.Task{
		Title:         data.Input.Title,
		Description:   data.Input.Description,
		AssigneeID:    assignee.ID,
		AssigneeName:  assignee.FullName,
		CreatedByID:   uid,
		CreatedByName: name,
		DueDate:       data.Input.DueDate,
		Status:        models.TaskOpen,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task failed", err, "שמירת המשימה נכשלה", "/tasks")
		return
	}

	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityTask, models.AuditCreate, t.ID, assignee.CityID, nil, map[string]string{
		"title":    t.Title,
		"assignee": t.AssigneeName,
		"due_date": t.DueDate,
	})
	h.notify(ctx, assignee.ID, "משימה חדשה: "+t.Title, "מאת "+name, "/tasks/"+t.ID.Hex())

	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// notify queues an in-app notification; the dispatch job pushes it later.
// A failure here never fails the request.
func (h *Handler) notify(ctx context.Context, id primitive.ObjectID, title, body, url string) {
	if _, err := h.Notifications.Create(ctx, []primitive.ObjectID{id}, title, body, url); err != nil {
		h.Log.Warn("task notification failed", zap.Error(err), zap.String("user_id", id.Hex()))
	}
}

// load returns the task if the caller is its assignee, its creator or a
// superadmin.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Task, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		uierrors.RenderNotFound(w, r, "/tasks")
		return models.Task{}, false
	}
	t, err := h.Tasks.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "/tasks")
		return models.Task{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task failed", err, "טעינת המשימה נכשלה", "/tasks")
		return models.Task{}, false
	}
	_, _, uid, _ := authz.UserCtx(r)
	if t.AssigneeID != uid && t.CreatedByID != uid && !authz.IsSuperAdmin(r) {
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לצפות במשימה זו", "/tasks")
		return models.Task{}, false
	}
	return t, true
}

// ServeView handles GET /tasks/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	t, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	data := viewData{
		BaseVM:      viewdata.NewBaseVM(r, h.DB, t.Title, "/tasks"),
		Task:        row(t, uid.Hex()),
		Description: t.Description,
	}
	if t.CompletedAt != nil {
		data.CompletedAt = t.CompletedAt.In(h.Loc).Format("02/01/2006 15:04")
	}
	templates.Render(w, r, "task_view", data)
}

// HandleComplete handles POST /tasks/{id}/complete. Only the assignee can
// close a task; the creator is notified.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	t, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	_, name, uid, _ := authz.UserCtx(r)
	done, err := h.Tasks.Complete(ctx, t.ID, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complete task failed", err, "עדכון המשימה נכשל", "/tasks")
		return
	}
	if !done {
		uierrors.RenderForbidden(w, r, "רק האחראי על משימה פתוחה יכול לסמן אותה כבוצעה", "/tasks")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityTask, models.AuditUpdate, t.ID, nil,
		map[string]string{"status": t.Status}, map[string]string{"status": models.TaskDone})
	if t.CreatedByID != uid {
		h.notify(ctx, t.CreatedByID, "משימה בוצעה: "+t.Title, name, "/tasks/"+t.ID.Hex())
	}
	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.TasksBackURL), http.StatusSeeOther)
}
