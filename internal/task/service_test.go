package task

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/security"
)

// --- フェイクリポジトリ定義 ---

type fakeTaskRepo struct {
	tasks   map[string]*model.Task
	listErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*model.Task{}}
}

func (f *fakeTaskRepo) ListByUserID(ctx context.Context, userID string) ([]model.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeTaskRepo) FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *model.Task) error {
	c := *t
	f.tasks[c.ID] = &c
	return nil
}

func (f *fakeTaskRepo) SetCompleted(ctx context.Context, id, userID string, completed bool) error {
	if t, ok := f.tasks[id]; ok && t.UserID == userID {
		t.Completed = completed
	}
	return nil
}

func (f *fakeTaskRepo) UpdateTitle(ctx context.Context, id, userID, title string) error {
	if t, ok := f.tasks[id]; ok && t.UserID == userID {
		t.Title = title
	}
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id, userID string) error {
	if t, ok := f.tasks[id]; ok && t.UserID == userID {
		delete(f.tasks, id)
	}
	return nil
}

func newTestService() (*Service, *fakeTaskRepo) {
	repo := newFakeTaskRepo()
	return NewService(repo, security.NewInputSanitizer()), repo
}

// --- テスト ---

func TestList_AnonymousUser_ReturnsEmptyWithoutQuery(t *testing.T) {
	svc, repo := newTestService()
	// クエリが発行されるとエラーになるよう仕込む
	repo.listErr = context.DeadlineExceeded

	tasks, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error for anonymous list, got %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty list, got %d tasks", len(tasks))
	}
}

func TestCreateThenList_NewestFirst(t *testing.T) {
	svc, repo := newTestService()

	first, err := svc.Create(context.Background(), "u1", "Walk the dog")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	// created_atの順序を確定させる
	repo.tasks[first.ID].CreatedAt = time.Now().Add(-time.Minute)

	latest, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	tasks, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].ID != latest.ID {
		t.Errorf("first element should be the most recent task")
	}
	if tasks[0].Title != "Buy milk" {
		t.Errorf("tasks[0].Title = %q, want %q", tasks[0].Title, "Buy milk")
	}
	if tasks[0].Completed {
		t.Error("new task should start with completed=false")
	}
}

func TestCreate_EmptyOrWhitespaceTitle_Rejected(t *testing.T) {
	svc, repo := newTestService()

	for _, title := range []string{"", "   ", "\t\n", "<b></b>"} {
		_, err := svc.Create(context.Background(), "u1", title)
		appErr, ok := model.AsAppError(err)
		if !ok {
			t.Fatalf("Create(%q): expected AppError, got %v", title, err)
		}
		if appErr.Code != model.ErrCodeEmptyTitle {
			t.Errorf("Create(%q): code = %q, want %q", title, appErr.Code, model.ErrCodeEmptyTitle)
		}
	}
	if len(repo.tasks) != 0 {
		t.Errorf("no task should be stored, got %d", len(repo.tasks))
	}
}

func TestCreate_TitleIsSanitized(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "u1", "<script>alert(1)</script>Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", created.Title, "Buy milk")
	}
}

func TestCreate_Anonymous_Unauthorized(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), "", "Buy milk")
	appErr, ok := model.AsAppError(err)
	if !ok || appErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if len(repo.tasks) != 0 {
		t.Error("no write should be performed for anonymous create")
	}
}

func TestToggle_ReadsCurrentValueFromStorage(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	toggled, err := svc.Toggle(context.Background(), "u1", created.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !toggled.Completed {
		t.Error("first toggle should set completed=true")
	}
	if !repo.tasks[created.ID].Completed {
		t.Error("completed=true should be persisted")
	}

	// 2回のトグルで元に戻ること
	toggled, err = svc.Toggle(context.Background(), "u1", created.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if toggled.Completed {
		t.Error("second toggle should restore completed=false")
	}
}

func TestToggle_OtherUsersTask_NotFound(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Toggle(context.Background(), "u2", created.ID)
	appErr, ok := model.AsAppError(err)
	if !ok || appErr.Code != model.ErrCodeTaskNotFound {
		t.Fatalf("expected TASK_NOT_FOUND, got %v", err)
	}
	if repo.tasks[created.ID].Completed {
		t.Error("other user's toggle must not modify the task")
	}
}

func TestEdit_UpdatesTitleKeepsCompleted(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Toggle(context.Background(), "u1", created.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := svc.Edit(context.Background(), "u1", created.ID, "Buy oat milk"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	got := repo.tasks[created.ID]
	if got.Title != "Buy oat milk" {
		t.Errorf("Title = %q, want %q", got.Title, "Buy oat milk")
	}
	if !got.Completed {
		t.Error("edit must not change the completed flag")
	}
}

func TestEdit_OtherUsersTask_NotFound(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = svc.Edit(context.Background(), "u2", created.ID, "hijacked")
	appErr, ok := model.AsAppError(err)
	if !ok || appErr.Code != model.ErrCodeTaskNotFound {
		t.Fatalf("expected TASK_NOT_FOUND, got %v", err)
	}
	if repo.tasks[created.ID].Title != "Buy milk" {
		t.Error("other user's edit must not modify the task")
	}
}

func TestDelete_RemovesTask(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(context.Background(), "u1", created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	tasks, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, task := range tasks {
		if task.ID == created.ID {
			t.Error("deleted task should not appear in the list")
		}
	}
}

func TestDelete_OtherUsersTask_SilentNoop(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 他ユーザーのIDを直接指定してもエラーにならず、行も消えない
	if err := svc.Delete(context.Background(), "u2", created.ID); err != nil {
		t.Fatalf("cross-user delete should be a silent no-op, got %v", err)
	}
	if _, ok := repo.tasks[created.ID]; !ok {
		t.Error("task owned by another user must not be deleted")
	}
}

func TestMutations_Anonymous_PerformNoWrite(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "u1", "Buy milk")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Toggle(context.Background(), "", created.ID); err == nil {
		t.Error("anonymous toggle should fail")
	}
	if err := svc.Edit(context.Background(), "", created.ID, "x"); err == nil {
		t.Error("anonymous edit should fail")
	}
	if err := svc.Delete(context.Background(), "", created.ID); err == nil {
		t.Error("anonymous delete should fail")
	}

	got := repo.tasks[created.ID]
	if got == nil || got.Title != "Buy milk" || got.Completed {
		t.Error("anonymous mutations must not touch stored tasks")
	}
}
