package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
)

func newTestView(t *testing.T) *View {
	t.Helper()
	v, err := New()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	return v
}

func TestRenderIndex_Anonymous_ShowsSignInPrompt(t *testing.T) {
	v := newTestView(t)

	var buf bytes.Buffer
	if err := v.RenderIndex(&buf, IndexData{Authenticated: false}); err != nil {
		t.Fatalf("RenderIndex failed: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "Sign in") {
		t.Error("anonymous index should link to sign in")
	}
	if strings.Contains(html, "_action") {
		t.Error("anonymous index should not render task forms")
	}
}

func TestRenderIndex_Authenticated_ShowsTasksAndForms(t *testing.T) {
	v := newTestView(t)

	tasks := []model.Task{
		{ID: "task-1", Title: "Buy milk", Completed: false, CreatedAt: time.Now()},
		{ID: "task-2", Title: "Walk dog", Completed: true, CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	err := v.RenderIndex(&buf, IndexData{
		Authenticated: true,
		Email:         "user@example.com",
		Tasks:         tasks,
		CSRFToken:     "tok-abc",
	})
	if err != nil {
		t.Fatalf("RenderIndex failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Buy milk",
		"Walk dog",
		"user@example.com",
		`value="create"`,
		`value="toggle"`,
		`value="delete"`,
		`value="logout"`,
		`name="csrf_token" value="tok-abc"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("authenticated index missing %q", want)
		}
	}
	if !strings.Contains(html, `class="completed"`) {
		t.Error("completed task should carry the completed class")
	}
}

func TestRenderIndex_TitleIsEscaped(t *testing.T) {
	v := newTestView(t)

	tasks := []model.Task{
		{ID: "task-1", Title: `a < b & "c"`, CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	err := v.RenderIndex(&buf, IndexData{Authenticated: true, Tasks: tasks, CSRFToken: "t"})
	if err != nil {
		t.Fatalf("RenderIndex failed: %v", err)
	}

	html := buf.String()
	if strings.Contains(html, `<span class="task-title">a < b`) {
		t.Error("raw < must not survive in rendered title")
	}
	if !strings.Contains(html, "a &lt; b") {
		t.Error("title should be HTML-escaped at render time")
	}
}

func TestRenderIndex_EditingTask_RendersEditForm(t *testing.T) {
	v := newTestView(t)

	tasks := []model.Task{
		{ID: "task-1", Title: "Buy milk", CreatedAt: time.Now()},
		{ID: "task-2", Title: "Walk dog", CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	err := v.RenderIndex(&buf, IndexData{
		Authenticated: true,
		Tasks:         tasks,
		EditingID:     "task-2",
		CSRFToken:     "t",
	})
	if err != nil {
		t.Fatalf("RenderIndex failed: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, `value="edit"`) {
		t.Error("editing index should render the edit form")
	}
	if !strings.Contains(html, `value="Walk dog"`) {
		t.Error("edit form should be prefilled with the task title")
	}
	if strings.Count(html, `value="edit"`) != 1 {
		t.Error("only the targeted task should be in edit mode")
	}
}

func TestRenderIndex_FormError_RenderedInline(t *testing.T) {
	v := newTestView(t)

	var buf bytes.Buffer
	err := v.RenderIndex(&buf, IndexData{
		Authenticated: true,
		FormError:     "Title cannot be empty",
		CSRFToken:     "t",
	})
	if err != nil {
		t.Fatalf("RenderIndex failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Title cannot be empty") {
		t.Error("form error should be rendered inline")
	}
}

func TestRenderLogin_ErrorAndMessage(t *testing.T) {
	v := newTestView(t)

	var buf bytes.Buffer
	err := v.RenderLogin(&buf, LoginData{
		Error:     "Invalid email or password",
		CSRFToken: "tok",
	})
	if err != nil {
		t.Fatalf("RenderLogin failed: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "Invalid email or password") {
		t.Error("login error should be rendered")
	}
	if !strings.Contains(html, `value="login"`) || !strings.Contains(html, `value="signup"`) {
		t.Error("login page should offer both login and signup actions")
	}

	buf.Reset()
	err = v.RenderLogin(&buf, LoginData{
		Message:   "Check your email for the confirmation link",
		CSRFToken: "tok",
	})
	if err != nil {
		t.Fatalf("RenderLogin failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Check your email for the confirmation link") {
		t.Error("signup message should be rendered")
	}
}

func TestRenderConfirmation_StaticScreen(t *testing.T) {
	v := newTestView(t)

	var buf bytes.Buffer
	if err := v.RenderConfirmation(&buf); err != nil {
		t.Fatalf("RenderConfirmation failed: %v", err)
	}
	if !strings.Contains(buf.String(), "confirmed") {
		t.Error("confirmation screen should state the email was confirmed")
	}
}
